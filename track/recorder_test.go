package track

import (
	"errors"
	"sync"
	"testing"
)

func TestRecorder_AccumulatesAcrossTrials(t *testing.T) {
	rec := NewRecorder()

	// First trial suspends at the first runtime operation it reaches.
	t1 := rec.Begin(DefaultBranch)
	t1.Observe(OpTimeRead, "layout/clock", false)
	t1.Suspend("layout/clock")

	// Second trial resumes past the suspension and finds another operation.
	site, ok := rec.Suspended(DefaultBranch)
	if !ok || site != "layout/clock" {
		t.Fatalf("Suspended() = (%q, %v), want (layout/clock, true)", site, ok)
	}
	t2 := rec.Begin(DefaultBranch)
	t2.Observe(OpRequestRead, "page/cookies", false)

	obs := rec.Observations()
	if len(obs) != 2 {
		t.Fatalf("Observations() returned %d, want 2", len(obs))
	}
	if obs[0].Site != "layout/clock" || obs[1].Site != "page/cookies" {
		t.Errorf("observation order = [%s %s], want first-seen order [layout/clock page/cookies]",
			obs[0].Site, obs[1].Site)
	}
}

func TestRecorder_DeduplicatesObservations(t *testing.T) {
	rec := NewRecorder()

	trial := rec.Begin(DefaultBranch)
	trial.Observe(OpTimeRead, "site-a", false)
	trial.Observe(OpTimeRead, "site-a", false)
	trial.Observe(OpTimeRead, "site-a", true) // same key, later boundary state ignored

	if got := len(rec.Observations()); got != 1 {
		t.Errorf("Observations() returned %d, want 1 after dedupe", got)
	}
	if !rec.Seen(DefaultBranch, "site-a") {
		t.Error("Seen should report a recorded (branch, site)")
	}
	if rec.Seen(DefaultBranch, "site-b") {
		t.Error("Seen should not report an unrecorded site")
	}
}

func TestRecorder_DistinctOpsAtSameSite(t *testing.T) {
	rec := NewRecorder()

	trial := rec.Begin(DefaultBranch)
	trial.Observe(OpTimeRead, "site-a", false)
	trial.Observe(OpRequestRead, "site-a", false)

	if got := len(rec.Observations()); got != 2 {
		t.Errorf("Observations() returned %d, want 2 for distinct ops at one site", got)
	}
}

func TestRecorder_BranchesIndependent(t *testing.T) {
	rec := NewRecorder()

	rec.Begin("logged-in").Observe(OpRequestRead, "greeting", false)
	rec.Begin("logged-out").Observe(OpTimeRead, "banner", true)

	branches := rec.Branches()
	if len(branches) != 2 || branches[0] != "logged-in" || branches[1] != "logged-out" {
		t.Errorf("Branches() = %v, want [logged-in logged-out]", branches)
	}

	// The same site on a different branch is a distinct observation.
	rec.Begin("logged-out").Observe(OpRequestRead, "greeting", false)
	if got := len(rec.Observations()); got != 3 {
		t.Errorf("Observations() returned %d, want 3", got)
	}
}

func TestRecorder_ParamsRead(t *testing.T) {
	rec := NewRecorder()

	trial := rec.Begin(DefaultBranch)
	trial.ReadParam("cat")
	trial.ReadParam("region")
	trial.ReadParam("cat")

	got := rec.ParamsRead()
	if len(got) != 2 || got[0] != "cat" || got[1] != "region" {
		t.Errorf("ParamsRead() = %v, want [cat region]", got)
	}
}

func TestRecorder_RenderErrors(t *testing.T) {
	rec := NewRecorder()
	boom := errors.New("boom")

	trial := rec.Begin(DefaultBranch)
	trial.Error("page/body", boom, false)
	trial.Error("widget", boom, true)

	errs := rec.RenderErrors()
	if len(errs) != 2 {
		t.Fatalf("RenderErrors() returned %d, want 2", len(errs))
	}
	if errs[0].Site != "page/body" || errs[0].ClientOnly {
		t.Errorf("first error = %+v, want server-side page/body", errs[0])
	}
	if !errs[1].ClientOnly {
		t.Error("second error should keep its client-only marker")
	}
}

func TestRecorder_ClientOnlyObservation(t *testing.T) {
	rec := NewRecorder()

	rec.Begin(DefaultBranch).ObserveClientOnly(OpRandomRead, "confetti")

	obs := rec.Observations()
	if len(obs) != 1 {
		t.Fatalf("Observations() returned %d, want 1", len(obs))
	}
	if !obs[0].ClientOnly {
		t.Error("observation should carry the client-only marker")
	}
}

func TestRecorder_ConcurrentTrials(t *testing.T) {
	rec := NewRecorder()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			trial := rec.Begin(DefaultBranch)
			trial.ReadParam("cat")
			trial.Observe(OpTimeRead, "shared-site", false)
			trial.Suspend("shared-site")
		}(i)
	}
	wg.Wait()

	if got := len(rec.Observations()); got != 1 {
		t.Errorf("Observations() returned %d, want 1 after concurrent dedupe", got)
	}
	if got := rec.ParamsRead(); len(got) != 1 || got[0] != "cat" {
		t.Errorf("ParamsRead() = %v, want [cat]", got)
	}
}

func TestOpKind_String(t *testing.T) {
	tests := []struct {
		op   OpKind
		want string
	}{
		{OpTimeRead, "time-read"},
		{OpRequestRead, "request-read"},
		{OpRandomRead, "random-read"},
		{OpKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("OpKind(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
