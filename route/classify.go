package route

// Classification is the effective prefetch state of a segment: the declared
// capability narrowed by validation outcome.
type Classification int

const (
	// ClassUnknown means the segment has not been classified yet.
	ClassUnknown Classification = iota

	// ClassStatic marks a segment safe to serve from a precomputed shell
	// with no network round trip.
	ClassStatic

	// ClassRuntimePrefetchable marks a segment fetchable ahead of a
	// navigation for known or enumerated parameter samples.
	ClassRuntimePrefetchable

	// ClassBlocking marks a segment that must be fetched synchronously at
	// navigation time and is excluded from prefetch.
	ClassBlocking
)

func (c Classification) String() string {
	switch c {
	case ClassStatic:
		return "static"
	case ClassRuntimePrefetchable:
		return "runtime-prefetchable"
	case ClassBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// severity orders classifications from least to most restrictive. Narrowing
// only ever moves toward higher severity.
func (c Classification) severity() int {
	switch c {
	case ClassStatic:
		return 1
	case ClassRuntimePrefetchable:
		return 2
	case ClassBlocking:
		return 3
	default:
		return 0
	}
}

// Outcome summarizes a validation pass over one segment.
type Outcome struct {
	// Valid reports whether the segment passed for its default parameters.
	Valid bool

	// FailedSamples names the enumerated samples that failed validation.
	// Only meaningful for runtime declarations.
	FailedSamples []string
}

// Classify narrows a declared capability by a validation outcome.
//
// A static declaration that fails validation downgrades to blocking, never
// the other way around. A runtime declaration stays prefetchable even when
// individual samples fail; the failing samples are excluded separately. A
// runtime declaration with no samples that fails its default check has
// nothing left to prefetch and downgrades to blocking. An unset declaration
// is classified purely by outcome.
func Classify(declared Capability, out Outcome) Classification {
	switch declared {
	case CapabilityBlocking:
		return ClassBlocking
	case CapabilityRuntime:
		if !out.Valid && len(out.FailedSamples) == 0 {
			return ClassBlocking
		}
		return ClassRuntimePrefetchable
	default:
		// static and unset
		if out.Valid {
			return ClassStatic
		}
		return ClassBlocking
	}
}

// Narrow records a classification for the segment, keeping the most
// restrictive of the previous and new values. It returns the effective
// classification. Once a segment reaches blocking it never reclassifies to
// a less restrictive state.
func (s *Segment) Narrow(c Classification) Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.severity() > s.class.severity() {
		s.class = c
	}
	s.classSet = true
	return s.class
}

// Class returns the recorded classification and whether it is current.
// A params-read growth since the last Narrow marks the classification as
// not current; the recorded value still acts as a floor.
func (s *Segment) Class() (Classification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.class, s.classSet
}

// ExcludeSample removes an enumerated sample from prefetch eligibility.
// Exclusion is permanent for the life of the tree.
func (s *Segment) ExcludeSample(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.excluded == nil {
		s.excluded = make(map[string]struct{})
	}
	s.excluded[name] = struct{}{}
}

// SampleExcluded reports whether the named sample is excluded from prefetch.
func (s *Segment) SampleExcluded(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.excluded[name]
	return ok
}
