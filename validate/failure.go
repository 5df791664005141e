package validate

import (
	"fmt"

	"github.com/jonwraymond/segcache/track"
)

// Reason classifies a validation failure.
type Reason string

const (
	// ReasonMissingBoundary means a runtime-only operation is reachable
	// without a deferred-rendering wrapper above it.
	ReasonMissingBoundary Reason = "MISSING_BOUNDARY"

	// ReasonShortLivedHole means a zero-duration cache entry sits outside
	// any deferred boundary.
	ReasonShortLivedHole Reason = "SHORT_LIVED_HOLE"

	// ReasonStaticAssertionViolated means a descendant segment's own
	// capability conflicts with an ancestor's stricter assertion.
	ReasonStaticAssertionViolated Reason = "STATIC_ASSERTION_VIOLATED_BY_DESCENDANT"
)

// Failure is one structural validation failure. It carries the originating
// segment identity for diagnostics.
type Failure struct {
	Reason   Reason
	Template string
	SlotPath string

	// Branch and Site locate the offending observation, when the failure
	// came from one.
	Branch string
	Site   string

	// Sample names the enumerated parameter sample under which the failure
	// surfaced, if any.
	Sample string
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("validate: %s: %s#%s", f.Reason, f.Template, f.SlotPath)
	if f.Site != "" {
		msg += fmt.Sprintf(" at %q", f.Site)
	}
	if f.Branch != track.DefaultBranch {
		msg += fmt.Sprintf(" on branch %q", f.Branch)
	}
	if f.Sample != "" {
		msg += fmt.Sprintf(" for sample %q", f.Sample)
	}
	return msg
}

// Result is the outcome of validating one segment.
type Result struct {
	// Failures holds every structural failure found. Each observed
	// (branch, operation) combination is judged independently; a pass on
	// one branch never excuses a failure on another.
	Failures []*Failure

	// RenderErrors are errors thrown during pre-render trials. They are
	// reported alongside but are not boundary-validation failures.
	RenderErrors []track.RenderError
}

// Valid reports whether the segment passed with no structural failures.
func (r Result) Valid() bool {
	return len(r.Failures) == 0
}

// FailedSamples returns the distinct sample names that produced failures,
// in first-seen order. Failures on the default parameters are not included.
func (r Result) FailedSamples() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range r.Failures {
		if f.Sample == "" {
			continue
		}
		if _, ok := seen[f.Sample]; ok {
			continue
		}
		seen[f.Sample] = struct{}{}
		out = append(out, f.Sample)
	}
	return out
}

// DefaultFailed reports whether any failure surfaced outside an enumerated
// sample.
func (r Result) DefaultFailed() bool {
	for _, f := range r.Failures {
		if f.Sample == "" {
			return true
		}
	}
	return false
}
