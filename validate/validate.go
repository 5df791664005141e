package validate

import (
	"github.com/jonwraymond/segcache/route"
	"github.com/jonwraymond/segcache/track"
)

// Validate checks one segment against the observations of its default
// parameter trial renders.
//
// For a static (or unset) declaration, every observed runtime-only operation
// must sit under a deferred boundary, and no zero-duration cache entry may
// exist in the subtree outside a boundary. A blocking declaration excuses
// the segment's own operations only: ancestors wrapping it are validated on
// their own and can still fail.
//
// Operations and thrown errors inside client-only subtrees are never
// validation-relevant; they cannot block the initial navigation render.
// Errors thrown in pre-rendered subtrees surface as render errors on the
// result, not as boundary failures.
func Validate(seg *route.Segment, rec *track.Recorder) Result {
	res := validateObservations(seg, rec, "")
	structural := validateStructure(seg)
	res.Failures = append(res.Failures, structural...)
	return res
}

// ValidateSamples re-runs the segment check once per enumerated sample.
// trials maps sample name to that sample's recorder; the empty name holds
// the default-parameter trials. Failures carry the sample that exposed
// them, so an operation that only becomes unguarded under a non-default
// sample is reported against that sample alone.
func ValidateSamples(seg *route.Segment, trials map[string]*track.Recorder) Result {
	var res Result
	if seg == nil {
		return res
	}

	// Default pass first, then samples in declaration order. The
	// structural subtree scan is parameter-independent and runs once.
	def := validateObservations(seg, trials[""], "")
	res.Failures = append(res.Failures, def.Failures...)
	res.RenderErrors = append(res.RenderErrors, def.RenderErrors...)

	for _, sample := range seg.Samples {
		rec, ok := trials[sample.Name]
		if !ok {
			continue
		}
		sr := validateObservations(seg, rec, sample.Name)
		res.Failures = append(res.Failures, sr.Failures...)
		res.RenderErrors = append(res.RenderErrors, sr.RenderErrors...)
	}

	res.Failures = append(res.Failures, validateStructure(seg)...)
	return res
}

// Outcome converts a result into the classifier's input for the given
// declared capability. A runtime declaration stays valid when only
// enumerated samples failed; a static declaration fails on any failure.
func (r Result) Outcome(declared route.Capability) route.Outcome {
	switch declared {
	case route.CapabilityRuntime:
		return route.Outcome{
			Valid:         !r.DefaultFailed(),
			FailedSamples: r.FailedSamples(),
		}
	default:
		return route.Outcome{
			Valid:         r.Valid(),
			FailedSamples: r.FailedSamples(),
		}
	}
}

// validateObservations folds over the recorder's (branch, operation)
// records. Each combination is judged independently.
func validateObservations(seg *route.Segment, rec *track.Recorder, sample string) Result {
	var res Result
	if seg == nil || rec == nil {
		return res
	}
	if seg.ClientOnly {
		// Browser-only subtree: nothing here executes during pre-render.
		return res
	}

	excuseOwn := seg.Declared == route.CapabilityBlocking
	for _, o := range rec.Observations() {
		if o.ClientOnly || o.BoundaryActive {
			continue
		}
		if excuseOwn {
			continue
		}
		res.Failures = append(res.Failures, &Failure{
			Reason:   ReasonMissingBoundary,
			Template: seg.Template,
			SlotPath: seg.SlotPath(),
			Branch:   o.Branch,
			Site:     o.Site,
			Sample:   sample,
		})
	}

	for _, re := range rec.RenderErrors() {
		if re.ClientOnly {
			continue
		}
		res.RenderErrors = append(res.RenderErrors, re)
	}
	return res
}

// validateStructure scans the segment's subtree for forced dynamic holes
// and conflicting descendant capabilities. A zero-duration entry is treated
// exactly as an unguarded runtime operation: it must sit under a deferred
// boundary.
func validateStructure(seg *route.Segment) []*Failure {
	if seg == nil || seg.ClientOnly {
		return nil
	}
	if seg.Declared == route.CapabilityBlocking {
		// Blocking content is fetched at navigation time; there is no
		// shell for a hole to puncture.
		return nil
	}

	var failures []*Failure

	// The segment's own artifact with a zero window can never satisfy a
	// shell, boundary or not.
	if seg.RevalidateAfter == 0 {
		failures = append(failures, &Failure{
			Reason:   ReasonShortLivedHole,
			Template: seg.Template,
			SlotPath: seg.SlotPath(),
			Site:     seg.ID(),
		})
	}

	assertsStatic := seg.Declared == route.CapabilityStatic

	var descend func(s *route.Segment, guarded bool)
	descend = func(s *route.Segment, guarded bool) {
		for _, name := range s.SlotNames() {
			child, ok := s.Child(name)
			if !ok || child == nil {
				continue
			}
			if child.ClientOnly {
				continue
			}
			childGuarded := guarded || child.Deferred
			if child.RevalidateAfter == 0 && !childGuarded {
				failures = append(failures, &Failure{
					Reason:   ReasonShortLivedHole,
					Template: seg.Template,
					SlotPath: seg.SlotPath(),
					Site:     child.ID(),
				})
			}
			if assertsStatic && child.Declared == route.CapabilityBlocking && !childGuarded {
				failures = append(failures, &Failure{
					Reason:   ReasonStaticAssertionViolated,
					Template: seg.Template,
					SlotPath: seg.SlotPath(),
					Site:     child.ID(),
				})
			}
			descend(child, childGuarded)
		}
	}
	descend(seg, false)

	return failures
}

// TreeResult pairs a segment with its validation result.
type TreeResult struct {
	Segment *route.Segment
	Result  Result
}

// ValidateTree validates every segment of the tree top-down. trials
// supplies the per-sample recorders for a segment; returning nil means no
// trial data exists for it and only structural checks apply.
func ValidateTree(tree *route.Tree, trials func(seg *route.Segment) map[string]*track.Recorder) []TreeResult {
	var out []TreeResult
	if tree == nil {
		return out
	}
	_ = tree.Walk(func(seg *route.Segment, _ []*route.Segment) error {
		var t map[string]*track.Recorder
		if trials != nil {
			t = trials(seg)
		}
		out = append(out, TreeResult{Segment: seg, Result: ValidateSamples(seg, t)})
		return nil
	})
	return out
}
