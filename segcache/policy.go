package segcache

import "time"

// Policy configures store behavior.
type Policy struct {
	// MaxRevalidate caps revalidation windows. Positive windows are
	// clamped to this. If zero, no maximum is enforced.
	MaxRevalidate time.Duration

	// MaxEntries bounds the number of long-lived entries; the least
	// recently used entry is evicted on overflow. If zero, the store is
	// unbounded.
	MaxEntries int
}

// DefaultPolicy returns the default store policy.
// MaxRevalidate: 1 hour, MaxEntries: 4096.
func DefaultPolicy() Policy {
	return Policy{
		MaxRevalidate: time.Hour,
		MaxEntries:    4096,
	}
}

// EffectiveWindow returns the revalidation window to store, applying the
// clamp. Zero stays zero: it marks a dynamic hole, not a default. Negative
// windows mean never-stale and are not clamped.
func (p Policy) EffectiveWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return window
	}
	if p.MaxRevalidate > 0 && window > p.MaxRevalidate {
		return p.MaxRevalidate
	}
	return window
}
