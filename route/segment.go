package route

import (
	"sort"
	"sync"
	"time"
)

// DefaultSlot is the slot name of a segment's main child.
const DefaultSlot = "children"

// RevalidateNever marks a segment whose cached artifact never goes stale on
// its own; it leaves the cache only through explicit invalidation or
// capacity eviction.
const RevalidateNever = time.Duration(-1)

// Sample is an enumerated parameter set attached to a runtime-declared
// segment for pre-validation and prefetching.
type Sample struct {
	// Name identifies the sample in validation failures and prefetch
	// exclusions.
	Name string

	// Params are the parameter values the sample exercises.
	Params Params
}

// Segment is one node of a route tree.
//
// Identity is the pair (Template, SlotPath): two segments at different slot
// paths never share cache entries even when their templates match. All
// fields are fixed at tree build time; only the params-read accumulator and
// the classification state mutate afterwards, and both are safe for
// concurrent use.
type Segment struct {
	// Template is the route template position, e.g. "/category/[cat]".
	Template string

	// Slot is the slot name this segment occupies in its parent.
	// The root segment has an empty slot name.
	Slot string

	// Declared is the capability declared on the segment.
	Declared Capability

	// Samples are the enumerated parameter sets for a runtime declaration.
	Samples []Sample

	// RevalidateAfter is the revalidation window for cached artifacts of
	// this segment. Zero means the segment is a forced dynamic hole: its
	// artifact is never stored beyond the originating request.
	RevalidateAfter time.Duration

	// Deferred reports whether a deferred-rendering wrapper sits between
	// this segment's content and its parent segment boundary.
	Deferred bool

	// ClientOnly marks a subtree that executes exclusively after hydration
	// and therefore can never block a pre-render.
	ClientOnly bool

	slotPath  string
	slots     map[string]*Segment
	slotNames []string

	mu         sync.Mutex
	paramsRead map[string]struct{}
	class      Classification
	classSet   bool
	excluded   map[string]struct{}
}

// SlotPath is the slash-joined chain of slot names from the root down to
// this segment. The root's slot path is empty.
func (s *Segment) SlotPath() string {
	return s.slotPath
}

// ID is the segment's identity: template position plus slot path.
func (s *Segment) ID() string {
	return s.Template + "#" + s.slotPath
}

// Child returns the segment held by the named slot.
func (s *Segment) Child(slot string) (*Segment, bool) {
	c, ok := s.slots[slot]
	return c, ok
}

// SlotNames returns the segment's slot names, default slot first, parallel
// slots in lexicographic order.
func (s *Segment) SlotNames() []string {
	return s.slotNames
}

// ObserveParams records parameter names dereferenced during a trial render.
// The set grows monotonically and never shrinks. Growth invalidates the
// cached classification so the next classification pass can narrow further.
func (s *Segment) ObserveParams(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paramsRead == nil {
		s.paramsRead = make(map[string]struct{}, len(names))
	}
	grew := false
	for _, name := range names {
		if _, ok := s.paramsRead[name]; !ok {
			s.paramsRead[name] = struct{}{}
			grew = true
		}
	}
	if grew {
		// Keep the current class as a floor; Narrow never widens.
		s.classSet = false
	}
}

// ParamsRead returns a sorted copy of the accumulated params-read set.
func (s *Segment) ParamsRead() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.paramsRead))
	for name := range s.paramsRead {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ReadsParam reports whether the segment has been observed reading name.
func (s *Segment) ReadsParam(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paramsRead[name]
	return ok
}

func sortedSlotNames(slots map[string]*Segment) []string {
	names := make([]string, 0, len(slots))
	for name := range slots {
		if name != DefaultSlot {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := slots[DefaultSlot]; ok {
		names = append([]string{DefaultSlot}, names...)
	}
	return names
}
