package route

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		declared Capability
		out      Outcome
		want     Classification
	}{
		{"static valid", CapabilityStatic, Outcome{Valid: true}, ClassStatic},
		{"static invalid downgrades", CapabilityStatic, Outcome{Valid: false}, ClassBlocking},
		{"unset valid", CapabilityUnset, Outcome{Valid: true}, ClassStatic},
		{"unset invalid", CapabilityUnset, Outcome{Valid: false}, ClassBlocking},
		{"blocking always blocking", CapabilityBlocking, Outcome{Valid: true}, ClassBlocking},
		{"runtime valid", CapabilityRuntime, Outcome{Valid: true}, ClassRuntimePrefetchable},
		{
			"runtime with failed samples stays prefetchable",
			CapabilityRuntime,
			Outcome{Valid: true, FailedSamples: []string{"eu"}},
			ClassRuntimePrefetchable,
		},
		{
			"runtime default failure with samples stays prefetchable",
			CapabilityRuntime,
			Outcome{Valid: false, FailedSamples: []string{"eu"}},
			ClassRuntimePrefetchable,
		},
		{
			"runtime default failure with nothing left downgrades",
			CapabilityRuntime,
			Outcome{Valid: false},
			ClassBlocking,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.declared, tt.out); got != tt.want {
				t.Errorf("Classify(%v, %+v) = %v, want %v", tt.declared, tt.out, got, tt.want)
			}
		})
	}
}

func TestSegment_NarrowNeverWidens(t *testing.T) {
	seg := newTestSegment(t)

	if got := seg.Narrow(ClassBlocking); got != ClassBlocking {
		t.Fatalf("Narrow(blocking) = %v, want blocking", got)
	}

	// Attempting to widen back to static must keep blocking.
	if got := seg.Narrow(ClassStatic); got != ClassBlocking {
		t.Errorf("Narrow(static) after blocking = %v, want blocking kept", got)
	}
	if got := seg.Narrow(ClassRuntimePrefetchable); got != ClassBlocking {
		t.Errorf("Narrow(runtime) after blocking = %v, want blocking kept", got)
	}

	c, ok := seg.Class()
	if !ok || c != ClassBlocking {
		t.Errorf("Class() = (%v, %v), want (blocking, true)", c, ok)
	}
}

func TestSegment_NarrowProgression(t *testing.T) {
	seg := newTestSegment(t)

	if got := seg.Narrow(ClassStatic); got != ClassStatic {
		t.Fatalf("Narrow(static) = %v, want static", got)
	}
	if got := seg.Narrow(ClassRuntimePrefetchable); got != ClassRuntimePrefetchable {
		t.Errorf("Narrow(runtime) after static = %v, want runtime", got)
	}
}

func TestSegment_SampleExclusionPermanent(t *testing.T) {
	seg := newTestSegment(t)

	if seg.SampleExcluded("eu") {
		t.Fatal("sample should start unexcluded")
	}
	seg.ExcludeSample("eu")
	if !seg.SampleExcluded("eu") {
		t.Error("sample should be excluded after ExcludeSample")
	}
	if seg.SampleExcluded("us") {
		t.Error("other samples should remain unexcluded")
	}
}

func newTestSegment(t *testing.T) *Segment {
	t.Helper()
	tree, err := NewTree(&Descriptor{Template: "/t", RevalidateAfter: time.Hour})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	return tree.Root()
}
