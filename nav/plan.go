package nav

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/segcache/route"
	"github.com/jonwraymond/segcache/segcache"
)

// Action says how the orchestrator intends to satisfy one segment.
type Action int

const (
	// ActionServeCached serves the segment from the cache with no fetch.
	ActionServeCached Action = iota

	// ActionFetchNow fetches the segment synchronously; the navigation
	// waits on it.
	ActionFetchNow

	// ActionFetchDeferred fetches the segment without blocking the
	// navigation; the artifact fills in when it arrives.
	ActionFetchDeferred
)

func (a Action) String() string {
	switch a {
	case ActionServeCached:
		return "serve-cached"
	case ActionFetchNow:
		return "fetch-now"
	default:
		return "fetch-deferred"
	}
}

// Step is one (segment, action) pair of a navigation plan.
type Step struct {
	// Segment is the route segment this step satisfies.
	Segment *route.Segment

	// Key is the cache key for the segment under the navigation's
	// parameters, with ancestor context folded in.
	Key segcache.Key

	// Class is the segment's effective classification.
	Class route.Classification

	// Action says how the segment will be satisfied.
	Action Action

	// Stale reports that a cached entry exists but its revalidation
	// window has elapsed.
	Stale bool

	// RequestScoped marks a zero-window segment whose artifact must not
	// outlive the request; it is memoized per request, never stored.
	RequestScoped bool
}

// Plan is the ordered fetch strategy for one navigation, root to leaf.
// Root-first ordering matters: a changed layout fingerprint changes every
// descendant key below it.
type Plan struct {
	// Route is the target route's root template.
	Route string

	// Steps lists the per-segment actions in walk order.
	Steps []Step
}

// StepFor returns the step for a segment identity.
func (p Plan) StepFor(segID string) (Step, bool) {
	for _, s := range p.Steps {
		if s.Segment != nil && s.Segment.ID() == segID {
			return s, true
		}
	}
	return Step{}, false
}

// chainFingerprint folds an ancestor fingerprint chain into a segment's own
// fingerprint. Descendant keys derive from their ancestors' context, so a
// layout whose fingerprint changes invalidates every key computed below it;
// children are recomputed, never reused against stale ancestor context.
func chainFingerprint(parent, own string) string {
	if parent == "" {
		return own
	}
	d := xxhash.New()
	_, _ = d.WriteString(parent)
	_, _ = d.WriteString("/")
	_, _ = d.WriteString(own)
	return fmt.Sprintf("%016x", d.Sum64())
}
