package observe

import (
	"context"
	"errors"
	"testing"
)

// TestConfigValidate_Valid verifies that a fully valid config passes validation.
func TestConfigValidate_Valid(t *testing.T) {
	cfg := Config{
		ServiceName: "segcache-test",
		Version:     "1.0.0",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "stdout",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

// TestConfigValidate_Errors verifies each invalid field maps to its sentinel.
func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			"missing service name",
			Config{},
			ErrMissingServiceName,
		},
		{
			"unknown tracing exporter",
			Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "jaeger"}},
			ErrInvalidTracingExporter,
		},
		{
			"unknown metrics exporter",
			Config{ServiceName: "s", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}},
			ErrInvalidMetricsExporter,
		},
		{
			"sample percentage too high",
			Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.5}},
			ErrInvalidSamplePct,
		},
		{
			"sample percentage negative",
			Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: -0.1}},
			ErrInvalidSamplePct,
		},
		{
			"unknown log level",
			Config{ServiceName: "s", Logging: LoggingConfig{Enabled: true, Level: "trace"}},
			ErrInvalidLogLevel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestNewObserver_DisabledNoop verifies that all-disabled config returns no-op observer.
func TestNewObserver_DisabledNoop(t *testing.T) {
	cfg := Config{
		ServiceName: "segcache-test",
		Tracing:     TracingConfig{Enabled: false},
		Metrics:     MetricsConfig{Enabled: false},
		Logging:     LoggingConfig{Enabled: false},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if obs == nil {
		t.Fatal("expected non-nil observer")
	}
	// No-op observer should still be usable
	if obs.Tracer() == nil {
		t.Error("expected non-nil tracer (noop)")
	}
	if obs.Meter() == nil {
		t.Error("expected non-nil meter (noop)")
	}
	if obs.Logger() == nil {
		t.Error("expected non-nil logger (noop)")
	}
}

// TestNewObserver_InvalidConfigReturnsError verifies that invalid config returns error.
func TestNewObserver_InvalidConfigReturnsError(t *testing.T) {
	if _, err := NewObserver(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
}

// TestNewObserver_ShutdownGracefully verifies shutdown doesn't panic or error.
func TestNewObserver_ShutdownGracefully(t *testing.T) {
	cfg := Config{
		ServiceName: "segcache-test",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "none",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "none",
		},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no shutdown error, got: %v", err)
	}
}

// TestNopImplementations verifies the no-op telemetry primitives are safe to use.
func TestNopImplementations(t *testing.T) {
	ctx := context.Background()
	meta := SegmentMeta{Route: "/page", Slot: "children"}

	logger := NopLogger()
	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e")
	if logger.WithSegment(meta) == nil {
		t.Error("NopLogger().WithSegment should return a usable logger")
	}

	metrics := NopMetrics()
	metrics.RecordLookup(ctx, meta, true, false)
	metrics.RecordPopulation(ctx, meta, 0, nil)
	metrics.RecordValidationFailure(ctx, meta, "MISSING_BOUNDARY")

	tracer := NopTracer()
	sctx, span := tracer.StartSpan(ctx, "lookup", meta)
	if sctx == nil || span == nil {
		t.Error("NopTracer().StartSpan should return a context and span")
	}
	tracer.EndSpan(span, nil)
	tracer.EndSpan(nil, nil)
}

// TestSegmentMeta_Identity verifies span naming and segment identity.
func TestSegmentMeta_Identity(t *testing.T) {
	meta := SegmentMeta{Route: "/category/[cat]", Slot: "children/children"}

	if got := meta.SpanName("lookup"); got != "seg.lookup./category/[cat]" {
		t.Errorf("SpanName() = %q, want %q", got, "seg.lookup./category/[cat]")
	}
	if got := meta.SegmentID(); got != "/category/[cat]#children/children" {
		t.Errorf("SegmentID() = %q, want %q", got, "/category/[cat]#children/children")
	}

	rootMeta := SegmentMeta{Route: "/"}
	if got := rootMeta.SegmentID(); got != "/" {
		t.Errorf("SegmentID() without slot = %q, want %q", got, "/")
	}
}
