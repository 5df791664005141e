package track

import (
	"sort"
	"sync"
)

// OpKind classifies a runtime-only operation.
type OpKind int

const (
	// OpTimeRead is a time-of-request read.
	OpTimeRead OpKind = iota

	// OpRequestRead is a request-scoped read (headers, cookies, search
	// params).
	OpRequestRead

	// OpRandomRead is a non-deterministic read.
	OpRandomRead
)

func (k OpKind) String() string {
	switch k {
	case OpTimeRead:
		return "time-read"
	case OpRequestRead:
		return "request-read"
	case OpRandomRead:
		return "random-read"
	default:
		return "unknown"
	}
}

// DefaultBranch tags observations from the unconditional render path.
const DefaultBranch = ""

// Observation is one runtime-only operation reached during a trial render.
type Observation struct {
	// Branch identifies the conditional path that reached the operation.
	Branch string

	// Op is the kind of runtime-only operation invoked.
	Op OpKind

	// Site labels the call site for diagnostics.
	Site string

	// BoundaryActive reports whether a deferred-rendering boundary was
	// interposed above the call site at the moment of invocation.
	BoundaryActive bool

	// ClientOnly reports whether the call site lives in a subtree known to
	// execute exclusively after hydration.
	ClientOnly bool
}

// RenderError is an error thrown during a trial render. Render errors are
// surfaced separately from boundary validation failures.
type RenderError struct {
	Branch     string
	Site       string
	Err        error
	ClientOnly bool
}

type obsKey struct {
	branch string
	op     OpKind
	site   string
}

// Recorder accumulates trial-render observations for one segment.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Accumulation: observations are deduplicated by (branch, op, site) and
//     never forgotten; repeated trials only add.
//   - Resumption: Suspend marks where a trial stopped so the next trial on
//     the same branch can skip past it.
type Recorder struct {
	mu         sync.Mutex
	obs        map[obsKey]Observation
	order      []obsKey
	branches   map[string]struct{}
	suspended  map[string]string
	params     map[string]struct{}
	renderErrs []RenderError
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		obs:       make(map[obsKey]Observation),
		branches:  make(map[string]struct{}),
		suspended: make(map[string]string),
		params:    make(map[string]struct{}),
	}
}

// Begin starts a trial render pass on the given branch. Passing
// DefaultBranch records observations against the unconditional path.
func (r *Recorder) Begin(branch string) *Trial {
	r.mu.Lock()
	r.branches[branch] = struct{}{}
	r.mu.Unlock()
	return &Trial{r: r, branch: branch}
}

// Suspended returns the site at which the last trial on branch suspended,
// if any. A renderer uses this to resume past the previous suspension point.
func (r *Recorder) Suspended(branch string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	site, ok := r.suspended[branch]
	return site, ok
}

// Seen reports whether an observation at (branch, site) was already
// recorded in an earlier trial, regardless of operation kind.
func (r *Recorder) Seen(branch, site string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.obs {
		if k.branch == branch && k.site == site {
			return true
		}
	}
	return false
}

// Observations returns all accumulated observations in first-seen order.
func (r *Recorder) Observations() []Observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Observation, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.obs[k])
	}
	return out
}

// Branches returns the sorted set of branches observed so far.
func (r *Recorder) Branches() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.branches))
	for b := range r.branches {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// ParamsRead returns the sorted parameter names dereferenced across all
// trials.
func (r *Recorder) ParamsRead() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.params))
	for name := range r.params {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RenderErrors returns the errors thrown during trials, in order.
func (r *Recorder) RenderErrors() []RenderError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RenderError, len(r.renderErrs))
	copy(out, r.renderErrs)
	return out
}

func (r *Recorder) record(o Observation) {
	key := obsKey{branch: o.Branch, op: o.Op, site: o.Site}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.obs[key]; ok {
		return
	}
	r.obs[key] = o
	r.order = append(r.order, key)
}

// Trial is one render pass of a segment on a single branch. Trials are not
// safe for concurrent use; start one trial per goroutine.
type Trial struct {
	r      *Recorder
	branch string
}

// Branch returns the branch this trial renders.
func (t *Trial) Branch() string {
	return t.branch
}

// ReadParam records a parameter dereference.
func (t *Trial) ReadParam(name string) {
	t.r.mu.Lock()
	t.r.params[name] = struct{}{}
	t.r.mu.Unlock()
}

// Observe records a runtime-only operation reached at site with the given
// boundary state.
func (t *Trial) Observe(op OpKind, site string, boundaryActive bool) {
	t.r.record(Observation{
		Branch:         t.branch,
		Op:             op,
		Site:           site,
		BoundaryActive: boundaryActive,
	})
}

// ObserveClientOnly records a runtime-only operation inside a client-only
// subtree. Such operations never require a deferred boundary.
func (t *Trial) ObserveClientOnly(op OpKind, site string) {
	t.r.record(Observation{
		Branch:     t.branch,
		Op:         op,
		Site:       site,
		ClientOnly: true,
	})
}

// Suspend marks that the trial stopped at site, typically because the tree
// suspended on the first runtime operation it reached. The next trial on
// the same branch resumes past this point.
func (t *Trial) Suspend(site string) {
	t.r.mu.Lock()
	t.r.suspended[t.branch] = site
	t.r.mu.Unlock()
}

// Error records an error thrown during the trial. Errors in client-only
// subtrees are never validation-relevant; others surface as render errors.
func (t *Trial) Error(site string, err error, clientOnly bool) {
	t.r.mu.Lock()
	t.r.renderErrs = append(t.r.renderErrs, RenderError{
		Branch:     t.branch,
		Site:       site,
		Err:        err,
		ClientOnly: clientOnly,
	})
	t.r.mu.Unlock()
}
