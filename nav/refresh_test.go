package nav

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/segcache/observe"
	"github.com/jonwraymond/segcache/route"
	"github.com/jonwraymond/segcache/segcache"
)

func refreshSegment(t *testing.T) (*route.Segment, segcache.Key) {
	t.Helper()
	tree, err := route.NewTree(&route.Descriptor{
		Template:        "/page",
		Declared:        route.CapabilityStatic,
		RevalidateAfter: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	seg := tree.Root()
	key := segcache.Key{Template: seg.Template, SlotPath: seg.SlotPath(), Fingerprint: "feedfacefeedface"}
	return seg, key
}

func TestRefresher_ReplacesStaleEntry(t *testing.T) {
	store := segcache.NewStore(segcache.DefaultPolicy())
	ctx := context.Background()
	seg, key := refreshSegment(t)

	if err := store.Put(ctx, key, []byte("stale"), time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	r := NewRefresher(store, func(ctx context.Context, s *route.Segment, fp string) ([]byte, error) {
		return []byte("fresh"), nil
	}, nil, RefreshConfig{})

	r.Refresh(seg, key)
	r.Wait()

	entry, ok := store.Get(ctx, key)
	if !ok {
		t.Fatal("entry should still be present after refresh")
	}
	if entry.State != segcache.StateFresh {
		t.Errorf("entry state = %v, want fresh after refresh", entry.State)
	}
	if !bytes.Equal(entry.Artifact, []byte("fresh")) {
		t.Errorf("artifact = %q, want refreshed value", entry.Artifact)
	}
}

func TestRefresher_DeduplicatesInflight(t *testing.T) {
	store := segcache.NewStore(segcache.DefaultPolicy())
	seg, key := refreshSegment(t)

	var calls atomic.Int32
	release := make(chan struct{})
	r := NewRefresher(store, func(ctx context.Context, s *route.Segment, fp string) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("fresh"), nil
	}, nil, RefreshConfig{})

	r.Refresh(seg, key)
	r.Refresh(seg, key) // no-op while the first is in flight
	close(release)
	r.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("refresh populated %d times, want 1 for a deduplicated key", got)
	}
}

func TestRefresher_RetriesThenSucceeds(t *testing.T) {
	store := segcache.NewStore(segcache.DefaultPolicy())
	ctx := context.Background()
	seg, key := refreshSegment(t)

	var calls atomic.Int32
	r := NewRefresher(store, func(ctx context.Context, s *route.Segment, fp string) ([]byte, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return []byte("eventually"), nil
	}, nil, RefreshConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})

	r.Refresh(seg, key)
	r.Wait()

	if got := calls.Load(); got != 3 {
		t.Errorf("populate ran %d times, want 3", got)
	}
	entry, ok := store.Get(ctx, key)
	if !ok || !bytes.Equal(entry.Artifact, []byte("eventually")) {
		t.Error("entry should hold the artifact from the successful retry")
	}
}

func TestRefresher_ExhaustedRetriesKeepStale(t *testing.T) {
	store := segcache.NewStore(segcache.DefaultPolicy())
	ctx := context.Background()
	seg, key := refreshSegment(t)

	if err := store.Put(ctx, key, []byte("last-good"), time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var calls atomic.Int32
	r := NewRefresher(store, func(ctx context.Context, s *route.Segment, fp string) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("upstream down")
	}, observe.NopLogger(), RefreshConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})

	r.Refresh(seg, key)
	r.Wait()

	if got := calls.Load(); got != 2 {
		t.Errorf("populate ran %d times, want 2", got)
	}

	// The stale artifact keeps serving.
	entry, ok := store.Get(ctx, key)
	if !ok {
		t.Fatal("stale entry should survive a failed refresh")
	}
	if entry.State != segcache.StateStale {
		t.Errorf("entry state = %v, want still stale", entry.State)
	}
	if !bytes.Equal(entry.Artifact, []byte("last-good")) {
		t.Errorf("artifact = %q, want the last good value", entry.Artifact)
	}
}

func TestRefreshConfig_Defaults(t *testing.T) {
	cfg := RefreshConfig{}.withDefaults()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("MaxDelay = %v, want 5s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", cfg.Multiplier)
	}
}
