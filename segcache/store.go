package segcache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/segcache/observe"
)

// EntryState is the lifecycle state of a cache entry.
type EntryState int

const (
	// StateFresh means the entry is within its revalidation window.
	StateFresh EntryState = iota

	// StateStale means the window has elapsed; the artifact is still
	// servable while a refetch runs.
	StateStale
)

func (s EntryState) String() string {
	switch s {
	case StateStale:
		return "stale"
	default:
		return "fresh"
	}
}

// Entry is a stored artifact together with its lifecycle metadata.
type Entry struct {
	// Artifact is the opaque payload produced by the rendering
	// collaborator.
	Artifact []byte

	// CreatedAt is when the artifact was stored.
	CreatedAt time.Time

	// RevalidateAfter is the revalidation window the entry was stored
	// with. Negative means never-stale.
	RevalidateAfter time.Duration

	// State is the entry's state at lookup time.
	State EntryState
}

// PopulationFunc computes an artifact for a key on a miss.
type PopulationFunc func(ctx context.Context) ([]byte, error)

type storeEntry struct {
	artifact  []byte
	createdAt time.Time
	window    time.Duration
	elem      *list.Element
}

// Store is the long-lived segment cache.
//
// Contract:
//   - Concurrency: safe for concurrent use. Mutation is serialized per key;
//     distinct keys populate concurrently without coordination.
//   - Staleness: Get returns stale entries together with their state; it
//     never silently drops them.
//   - Zero windows: Put of a zero revalidation window is a logged no-op;
//     such artifacts belong in a RequestMemo, never in the long-lived store.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*storeEntry
	lru     *list.List // of Key, front = most recent
	policy  Policy
	logger  observe.Logger
	flight  singleflight.Group
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger for rejected writes and evictions.
func WithLogger(l observe.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store with the given policy.
func NewStore(policy Policy, opts ...Option) *Store {
	s := &Store{
		entries: make(map[Key]*storeEntry),
		lru:     list.New(),
		policy:  policy,
		logger:  observe.NopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves the entry for key. Amortized O(1). A stale entry is
// returned with StateStale so the caller may serve stale while refetching
// or force a refetch.
func (s *Store) Get(_ context.Context, key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	s.lru.MoveToFront(e.elem)

	state := StateFresh
	if e.window >= 0 && s.now().After(e.createdAt.Add(e.window)) {
		state = StateStale
	}
	return Entry{
		Artifact:        e.artifact,
		CreatedAt:       e.createdAt,
		RevalidateAfter: e.window,
		State:           state,
	}, true
}

// Put stores an artifact under key with the given revalidation window.
// A zero window is rejected as a no-op: zero-duration entries must never
// outlive the originating request, so they never enter the long-lived
// store.
func (s *Store) Put(ctx context.Context, key Key, artifact []byte, window time.Duration) error {
	if window == 0 {
		s.logger.Warn(ctx, "rejected zero-window write to long-lived store",
			observe.Field{Key: "route", Value: key.Template},
			observe.Field{Key: "slot", Value: key.SlotPath},
			observe.Field{Key: "fingerprint", Value: key.Fingerprint},
		)
		return nil
	}
	window = s.policy.EffectiveWindow(window)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.artifact = artifact
		e.createdAt = s.now()
		e.window = window
		s.lru.MoveToFront(e.elem)
		return nil
	}

	e := &storeEntry{
		artifact:  artifact,
		createdAt: s.now(),
		window:    window,
	}
	e.elem = s.lru.PushFront(key)
	s.entries[key] = e

	for s.policy.MaxEntries > 0 && len(s.entries) > s.policy.MaxEntries {
		s.evictOldestLocked(ctx)
	}
	return nil
}

// evictOldestLocked removes the least recently used entry. Caller must hold
// the lock.
func (s *Store) evictOldestLocked(ctx context.Context) {
	back := s.lru.Back()
	if back == nil {
		return
	}
	key := back.Value.(Key)
	s.lru.Remove(back)
	delete(s.entries, key)
	s.logger.Debug(ctx, "evicted cache entry",
		observe.Field{Key: "route", Value: key.Template},
		observe.Field{Key: "fingerprint", Value: key.Fingerprint},
	)
}

// Invalidate removes all entries under the given route path whose key
// matches pred. Segments below the path (template prefix) are included, so
// revalidating a layout drops its descendants' entries too. It returns the
// number of entries removed.
func (s *Store) Invalidate(_ context.Context, path string, pred func(Key) bool) int {
	if pred == nil {
		pred = MatchAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if key.Template != path && !strings.HasPrefix(key.Template, strings.TrimSuffix(path, "/")+"/") {
			continue
		}
		if !pred(key) {
			continue
		}
		s.lru.Remove(e.elem)
		delete(s.entries, key)
		removed++
	}
	return removed
}

// MatchAll matches every key; it is the predicate for an external
// "revalidate path" trigger.
func MatchAll(Key) bool { return true }

// Populate computes and stores the artifact for key with a single-flight
// guarantee: at most one in-flight population per key, with every
// concurrent caller awaiting the same computation and receiving the same
// result or failure. A failed population is not cached; the key stays a
// miss. A zero window stores nothing: the computed entry is returned for
// request-scoped use only.
func (s *Store) Populate(ctx context.Context, key Key, window time.Duration, fn PopulationFunc) (Entry, error) {
	if fn == nil {
		return Entry{}, ErrNilPopulation
	}

	v, err, _ := s.flight.Do(key.String(), func() (any, error) {
		artifact, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if putErr := s.Put(ctx, key, artifact, window); putErr != nil {
			return nil, putErr
		}
		return artifact, nil
	})
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Artifact:        v.([]byte),
		CreatedAt:       s.now(),
		RevalidateAfter: window,
		State:           StateFresh,
	}, nil
}

// Len returns the number of long-lived entries currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
