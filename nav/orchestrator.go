package nav

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/segcache/observe"
	"github.com/jonwraymond/segcache/route"
	"github.com/jonwraymond/segcache/segcache"
	"github.com/jonwraymond/segcache/track"
	"github.com/jonwraymond/segcache/validate"
)

// PopulateFunc produces the artifact for a segment under a fingerprint.
// It is supplied by the rendering collaborator and is the orchestrator's
// only suspension point.
type PopulateFunc func(ctx context.Context, seg *route.Segment, fingerprint string) ([]byte, error)

// TrialSource supplies trial-render recorders for segments that still need
// classification. The map is keyed by sample name; the empty name holds the
// default-parameter trials.
type TrialSource interface {
	Trials(seg *route.Segment) map[string]*track.Recorder
}

// TrialSourceFunc adapts a function to the TrialSource interface.
type TrialSourceFunc func(seg *route.Segment) map[string]*track.Recorder

// Trials calls f.
func (f TrialSourceFunc) Trials(seg *route.Segment) map[string]*track.Recorder {
	return f(seg)
}

// Config configures an Orchestrator.
type Config struct {
	// Store is the long-lived segment cache. Required.
	Store *segcache.Store

	// Populate is the rendering collaborator's population function.
	// Required.
	Populate PopulateFunc

	// Trials supplies trial-render data for classification. Optional; a
	// segment with no trial data is classified on structure alone.
	Trials TrialSource

	// Refresh configures background refresh of stale entries.
	Refresh RefreshConfig

	// Logger, Metrics and Tracer default to no-ops.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer
}

// Orchestrator coordinates lookups, classification and population across a
// route tree.
//
// Contract:
//   - Concurrency: safe for concurrent use; distinct navigations and
//     prefetches proceed independently, sharing only the store.
//   - Errors: validation failures downgrade classification with a warning,
//     they never fail planning. Population failures propagate and are not
//     cached.
type Orchestrator struct {
	store     *segcache.Store
	populate  PopulateFunc
	trials    TrialSource
	logger    observe.Logger
	metrics   observe.Metrics
	tracer    observe.Tracer
	refresher *Refresher
}

// New creates an orchestrator from the config.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Populate == nil {
		return nil, ErrNilPopulate
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}
	o := &Orchestrator{
		store:    cfg.Store,
		populate: cfg.Populate,
		trials:   cfg.Trials,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}
	o.refresher = NewRefresher(cfg.Store, cfg.Populate, cfg.Logger, cfg.Refresh)
	return o, nil
}

// Refresher returns the orchestrator's background refresher.
func (o *Orchestrator) Refresher() *Refresher {
	return o.refresher
}

func meta(seg *route.Segment, fingerprint string) observe.SegmentMeta {
	return observe.SegmentMeta{
		Route:       seg.Template,
		Slot:        seg.SlotPath(),
		Fingerprint: fingerprint,
	}
}

// ensureClassified returns the segment's effective classification, running
// validation when no current classification exists. Failures downgrade, warn
// and count; they never abort.
func (o *Orchestrator) ensureClassified(ctx context.Context, seg *route.Segment) route.Classification {
	if c, ok := seg.Class(); ok && c != route.ClassUnknown {
		return c
	}

	var trials map[string]*track.Recorder
	if o.trials != nil {
		trials = o.trials.Trials(seg)
	}
	for _, rec := range trials {
		if rec != nil {
			seg.ObserveParams(rec.ParamsRead()...)
		}
	}

	res := validate.ValidateSamples(seg, trials)
	for _, f := range res.Failures {
		o.metrics.RecordValidationFailure(ctx, meta(seg, ""), string(f.Reason))
		o.logger.Warn(ctx, "validation failure downgrades segment",
			observe.Field{Key: "seg.id", Value: seg.ID()},
			observe.Field{Key: "reason", Value: string(f.Reason)},
			observe.Field{Key: "site", Value: f.Site},
			observe.Field{Key: "branch", Value: f.Branch},
			observe.Field{Key: "sample", Value: f.Sample},
		)
	}
	for _, re := range res.RenderErrors {
		o.logger.Error(ctx, "render error during trial",
			observe.Field{Key: "seg.id", Value: seg.ID()},
			observe.Field{Key: "site", Value: re.Site},
			observe.Field{Key: "branch", Value: re.Branch},
			observe.Field{Key: "error", Value: re.Err.Error()},
		)
	}
	for _, name := range res.FailedSamples() {
		seg.ExcludeSample(name)
	}

	return seg.Narrow(route.Classify(seg.Declared, res.Outcome(seg.Declared)))
}

// Plan walks the tree top-down and produces the fetch strategy for one
// navigation. Planning never blocks: it performs no population.
func (o *Orchestrator) Plan(ctx context.Context, tree *route.Tree, params route.Params) (Plan, error) {
	if tree == nil {
		return Plan{}, ErrNilTree
	}

	ctx, span := o.tracer.StartSpan(ctx, "plan", observe.SegmentMeta{Route: tree.Root().Template})
	defer o.tracer.EndSpan(span, nil)

	plan := Plan{Route: tree.Root().Template}
	chained := make(map[string]string, tree.Len())

	err := tree.Walk(func(seg *route.Segment, ancestors []*route.Segment) error {
		own, err := segcache.Fingerprint(seg, params)
		if err != nil {
			return err
		}
		chain := own
		if len(ancestors) > 0 {
			parent := ancestors[len(ancestors)-1]
			chain = chainFingerprint(chained[parent.ID()], own)
		}
		chained[seg.ID()] = chain

		key := segcache.Key{Template: seg.Template, SlotPath: seg.SlotPath(), Fingerprint: chain}
		class := o.ensureClassified(ctx, seg)

		step := o.planStep(ctx, seg, key, class)
		plan.Steps = append(plan.Steps, step)
		return nil
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// planStep decides the action for one segment.
func (o *Orchestrator) planStep(ctx context.Context, seg *route.Segment, key segcache.Key, class route.Classification) Step {
	step := Step{Segment: seg, Key: key, Class: class}

	if seg.RevalidateAfter == 0 {
		// Dynamic hole: never served from the long-lived store. Under a
		// deferred boundary it fills in without blocking; otherwise the
		// navigation waits on it.
		step.RequestScoped = true
		if seg.Deferred {
			step.Action = ActionFetchDeferred
		} else {
			step.Action = ActionFetchNow
		}
		return step
	}

	entry, ok := o.store.Get(ctx, key)
	stale := ok && entry.State == segcache.StateStale
	o.metrics.RecordLookup(ctx, meta(seg, key.Fingerprint), ok, stale)

	if class == route.ClassBlocking {
		// Blocking content is refetched every navigation; an existing
		// entry only serves as the stale fallback.
		step.Action = ActionFetchNow
		step.Stale = stale
		return step
	}

	if ok {
		step.Action = ActionServeCached
		step.Stale = stale
		return step
	}

	if class == route.ClassStatic {
		// A static miss fills a shell hole without blocking navigation.
		step.Action = ActionFetchDeferred
		return step
	}

	step.Action = ActionFetchNow
	return step
}

// Execute carries out a plan. Fetch-now steps populate synchronously, with
// distinct keys populating concurrently; fetch-deferred steps populate
// without failing the navigation; stale serve-cached steps serve the stale
// artifact and refresh in the background. It returns the artifacts by
// segment identity. memo may be nil when the plan has no request-scoped
// steps.
func (o *Orchestrator) Execute(ctx context.Context, plan Plan, memo *segcache.RequestMemo) (map[string][]byte, error) {
	ctx, span := o.tracer.StartSpan(ctx, "execute", observe.SegmentMeta{Route: plan.Route})

	artifacts := make(map[string][]byte, len(plan.Steps))
	var mu sync.Mutex
	set := func(id string, artifact []byte) {
		mu.Lock()
		artifacts[id] = artifact
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, step := range plan.Steps {
		switch step.Action {
		case ActionServeCached:
			entry, ok := o.store.Get(ctx, step.Key)
			if !ok {
				// Entry vanished between planning and execution; treat as
				// a synchronous miss.
				step := step
				g.Go(func() error { return o.fetchNow(gctx, step, nil, set) })
				continue
			}
			set(step.Segment.ID(), entry.Artifact)
			if entry.State == segcache.StateStale {
				o.refresher.Refresh(step.Segment, step.Key)
			}

		case ActionFetchNow:
			step := step
			g.Go(func() error { return o.fetchNow(gctx, step, memoFor(step, memo), set) })

		case ActionFetchDeferred:
			step := step
			g.Go(func() error {
				if err := o.fetchDeferred(gctx, step, memoFor(step, memo), set); err != nil {
					o.logger.Warn(gctx, "deferred fetch failed",
						observe.Field{Key: "seg.id", Value: step.Segment.ID()},
						observe.Field{Key: "error", Value: err.Error()},
					)
				}
				return nil
			})
		}
	}

	err := g.Wait()
	o.tracer.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func memoFor(step Step, memo *segcache.RequestMemo) *segcache.RequestMemo {
	if step.RequestScoped {
		return memo
	}
	return nil
}

// fetchNow satisfies a synchronous step. A failed refetch of a stale entry
// falls back to the stale artifact; with nothing to fall back on the
// failure propagates to the navigation.
func (o *Orchestrator) fetchNow(ctx context.Context, step Step, memo *segcache.RequestMemo, set func(string, []byte)) error {
	artifact, err := o.populateStep(ctx, step, memo)
	if err == nil {
		set(step.Segment.ID(), artifact)
		return nil
	}

	if entry, ok := o.store.Get(ctx, step.Key); ok {
		o.logger.Warn(ctx, "serving stale artifact after refetch failure",
			observe.Field{Key: "seg.id", Value: step.Segment.ID()},
			observe.Field{Key: "fingerprint", Value: step.Key.Fingerprint},
			observe.Field{Key: "error", Value: err.Error()},
		)
		set(step.Segment.ID(), entry.Artifact)
		return nil
	}

	if step.Stale {
		return &StaleServeError{
			Route:       step.Key.Template,
			Slot:        step.Key.SlotPath,
			Fingerprint: step.Key.Fingerprint,
			Err:         err,
		}
	}
	return err
}

// fetchDeferred satisfies a non-blocking step; its result lands in the
// cache (or memo) for later delivery.
func (o *Orchestrator) fetchDeferred(ctx context.Context, step Step, memo *segcache.RequestMemo, set func(string, []byte)) error {
	artifact, err := o.populateStep(ctx, step, memo)
	if err != nil {
		return err
	}
	set(step.Segment.ID(), artifact)
	return nil
}

// populateStep runs the population for one step. Request-scoped artifacts
// go through the memo and never touch the long-lived store; everything else
// goes through the store's single-flight population.
func (o *Orchestrator) populateStep(ctx context.Context, step Step, memo *segcache.RequestMemo) ([]byte, error) {
	seg := step.Segment
	m := meta(seg, step.Key.Fingerprint)

	if step.RequestScoped {
		if memo != nil {
			if artifact, ok := memo.Get(step.Key); ok {
				return artifact, nil
			}
		}
		start := time.Now()
		artifact, err := o.populate(ctx, seg, step.Key.Fingerprint)
		o.metrics.RecordPopulation(ctx, m, time.Since(start), err)
		if err != nil {
			return nil, &PopulationError{
				Route:       step.Key.Template,
				Slot:        step.Key.SlotPath,
				Fingerprint: step.Key.Fingerprint,
				Err:         err,
			}
		}
		if memo != nil {
			memo.Put(step.Key, artifact)
		}
		return artifact, nil
	}

	start := time.Now()
	entry, err := o.store.Populate(ctx, step.Key, seg.RevalidateAfter, func(ctx context.Context) ([]byte, error) {
		return o.populate(ctx, seg, step.Key.Fingerprint)
	})
	o.metrics.RecordPopulation(ctx, m, time.Since(start), err)
	if err != nil {
		return nil, &PopulationError{
			Route:       step.Key.Template,
			Slot:        step.Key.SlotPath,
			Fingerprint: step.Key.Fingerprint,
			Err:         err,
		}
	}
	return entry.Artifact, nil
}

// Prefetch populates every prefetch-eligible segment of the tree for a
// known parameter set ahead of a navigation. Blocking segments, dynamic
// holes, and excluded samples are skipped. Population runs detached from
// the caller's cancellation: a prefetch superseded by a real navigation
// still writes its result to the cache, the navigation simply does not wait
// for it. Failures are logged and leave the key a miss.
func (o *Orchestrator) Prefetch(ctx context.Context, tree *route.Tree, params route.Params) error {
	if tree == nil {
		return ErrNilTree
	}

	ctx, span := o.tracer.StartSpan(ctx, "prefetch", observe.SegmentMeta{Route: tree.Root().Template})
	defer o.tracer.EndSpan(span, nil)

	// Prefetch work is never wasted; see the cancellation note above.
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	chained := make(map[string]string, tree.Len())

	err := tree.Walk(func(seg *route.Segment, ancestors []*route.Segment) error {
		own, err := segcache.Fingerprint(seg, params)
		if err != nil {
			return err
		}
		chain := own
		if len(ancestors) > 0 {
			parent := ancestors[len(ancestors)-1]
			chain = chainFingerprint(chained[parent.ID()], own)
		}
		chained[seg.ID()] = chain

		class := o.ensureClassified(ctx, seg)
		if class == route.ClassBlocking || seg.RevalidateAfter == 0 {
			return nil
		}
		if o.sampleExcluded(seg, own) {
			return nil
		}

		key := segcache.Key{Template: seg.Template, SlotPath: seg.SlotPath(), Fingerprint: chain}
		if entry, ok := o.store.Get(ctx, key); ok && entry.State == segcache.StateFresh {
			return nil
		}

		g.Go(func() error {
			_, err := o.store.Populate(detached, key, seg.RevalidateAfter, func(ctx context.Context) ([]byte, error) {
				return o.populate(ctx, seg, key.Fingerprint)
			})
			if err != nil {
				o.logger.Warn(detached, "prefetch population failed",
					observe.Field{Key: "seg.id", Value: seg.ID()},
					observe.Field{Key: "fingerprint", Value: key.Fingerprint},
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
			return nil
		})
		return nil
	})
	if err != nil {
		return err
	}
	return g.Wait()
}

// sampleExcluded reports whether params matches an enumerated sample that
// validation excluded from prefetch. Matching compares fingerprints, so a
// sample matches exactly when it would share the segment's cache entry.
func (o *Orchestrator) sampleExcluded(seg *route.Segment, ownFingerprint string) bool {
	for _, sample := range seg.Samples {
		if !seg.SampleExcluded(sample.Name) {
			continue
		}
		sampleFP, err := segcache.Fingerprint(seg, sample.Params)
		if err != nil {
			continue
		}
		if sampleFP == ownFingerprint {
			return true
		}
	}
	return false
}

// Invalidate translates an external "revalidate path" trigger into cache
// invalidation of every entry at or below the path.
func (o *Orchestrator) Invalidate(ctx context.Context, path string) int {
	removed := o.store.Invalidate(ctx, path, segcache.MatchAll)
	o.logger.Info(ctx, "invalidated cached segments",
		observe.Field{Key: "path", Value: path},
		observe.Field{Key: "removed", Value: removed},
	)
	return removed
}
