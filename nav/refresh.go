package nav

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonwraymond/segcache/observe"
	"github.com/jonwraymond/segcache/route"
	"github.com/jonwraymond/segcache/segcache"
)

// RefreshConfig configures background refresh of stale entries.
type RefreshConfig struct {
	// MaxAttempts is the maximum number of attempts per refresh.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 5s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	return c
}

// Refresher refetches stale entries in the background so navigations keep
// serving the stale artifact without waiting. A refresh that exhausts its
// attempts leaves the stale entry in place; the entry keeps serving until a
// later refresh succeeds or it is evicted.
type Refresher struct {
	store    *segcache.Store
	populate PopulateFunc
	logger   observe.Logger
	config   RefreshConfig

	mu       sync.Mutex
	inflight map[segcache.Key]struct{}
	wg       sync.WaitGroup
}

// NewRefresher creates a refresher over the store.
func NewRefresher(store *segcache.Store, populate PopulateFunc, logger observe.Logger, cfg RefreshConfig) *Refresher {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Refresher{
		store:    store,
		populate: populate,
		logger:   logger,
		config:   cfg.withDefaults(),
		inflight: make(map[segcache.Key]struct{}),
	}
}

// Refresh schedules a background refetch for the key. At most one refresh
// per key runs at a time; a second call while one is in flight is a no-op.
// The refresh is detached from any request: it finishes even when the
// triggering navigation's context is long gone.
func (r *Refresher) Refresh(seg *route.Segment, key segcache.Key) {
	r.mu.Lock()
	if _, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		return
	}
	r.inflight[key] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, key)
			r.mu.Unlock()
		}()
		r.run(context.Background(), seg, key)
	}()
}

// run attempts the refetch with exponential backoff.
func (r *Refresher) run(ctx context.Context, seg *route.Segment, key segcache.Key) {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		_, err := r.store.Populate(ctx, key, seg.RevalidateAfter, func(ctx context.Context) ([]byte, error) {
			return r.populate(ctx, seg, key.Fingerprint)
		})
		if err == nil {
			if attempt > 1 {
				r.logger.Debug(ctx, "background refresh succeeded after retry",
					observe.Field{Key: "seg.id", Value: seg.ID()},
					observe.Field{Key: "attempt", Value: attempt},
				)
			}
			return
		}
		lastErr = err

		if attempt >= r.config.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.delay(attempt)):
		}
	}

	// Keep serving stale; the next stale lookup schedules another refresh.
	r.logger.Warn(ctx, "background refresh exhausted retries",
		observe.Field{Key: "seg.id", Value: seg.ID()},
		observe.Field{Key: "fingerprint", Value: key.Fingerprint},
		observe.Field{Key: "error", Value: lastErr.Error()},
	)
}

func (r *Refresher) delay(attempt int) time.Duration {
	multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
	delay := time.Duration(float64(r.config.InitialDelay) * multiplier)
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	if quarter := int64(delay / 4); quarter > 0 {
		// Up to 25% jitter spreads herds of stale keys apart.
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(quarter))
	}
	return delay
}

// Wait blocks until all in-flight refreshes finish. Intended for shutdown
// and tests.
func (r *Refresher) Wait() {
	r.wg.Wait()
}
