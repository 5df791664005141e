package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache and navigation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a cache lookup and its outcome.
	RecordLookup(ctx context.Context, meta SegmentMeta, hit bool, stale bool)

	// RecordPopulation records an artifact population with duration and
	// error status.
	RecordPopulation(ctx context.Context, meta SegmentMeta, duration time.Duration, err error)

	// RecordValidationFailure records a boundary validation failure by
	// reason.
	RecordValidationFailure(ctx context.Context, meta SegmentMeta, reason string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter          metric.Meter
	lookupCount    metric.Int64Counter
	hitCount       metric.Int64Counter
	staleCount     metric.Int64Counter
	populateCount  metric.Int64Counter
	populateErrors metric.Int64Counter
	populateHist   metric.Float64Histogram
	validateFails  metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookupCount, err := meter.Int64Counter(
		"seg.cache.lookups",
		metric.WithDescription("Total number of segment cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	hitCount, err := meter.Int64Counter(
		"seg.cache.hits",
		metric.WithDescription("Total number of segment cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	staleCount, err := meter.Int64Counter(
		"seg.cache.stale_hits",
		metric.WithDescription("Total number of lookups served a stale entry"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	populateCount, err := meter.Int64Counter(
		"seg.populate.total",
		metric.WithDescription("Total number of artifact populations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	populateErrors, err := meter.Int64Counter(
		"seg.populate.errors",
		metric.WithDescription("Total number of failed artifact populations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	populateHist, err := meter.Float64Histogram(
		"seg.populate.duration_ms",
		metric.WithDescription("Artifact population duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	validateFails, err := meter.Int64Counter(
		"seg.validate.failures",
		metric.WithDescription("Total number of boundary validation failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:          meter,
		lookupCount:    lookupCount,
		hitCount:       hitCount,
		staleCount:     staleCount,
		populateCount:  populateCount,
		populateErrors: populateErrors,
		populateHist:   populateHist,
		validateFails:  validateFails,
	}, nil
}

func segmentAttrs(meta SegmentMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("seg.route", meta.Route),
	}
	if meta.Slot != "" {
		attrs = append(attrs, attribute.String("seg.slot", meta.Slot))
	}
	return metric.WithAttributes(attrs...)
}

// RecordLookup records a cache lookup outcome.
func (m *metricsImpl) RecordLookup(ctx context.Context, meta SegmentMeta, hit bool, stale bool) {
	opt := segmentAttrs(meta)
	m.lookupCount.Add(ctx, 1, opt)
	if hit {
		m.hitCount.Add(ctx, 1, opt)
	}
	if stale {
		m.staleCount.Add(ctx, 1, opt)
	}
}

// RecordPopulation records an artifact population.
func (m *metricsImpl) RecordPopulation(ctx context.Context, meta SegmentMeta, duration time.Duration, err error) {
	opt := segmentAttrs(meta)
	m.populateCount.Add(ctx, 1, opt)
	if err != nil {
		m.populateErrors.Add(ctx, 1, opt)
	}
	m.populateHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordValidationFailure records a validation failure by reason.
func (m *metricsImpl) RecordValidationFailure(ctx context.Context, meta SegmentMeta, reason string) {
	m.validateFails.Add(ctx, 1, metric.WithAttributes(
		attribute.String("seg.route", meta.Route),
		attribute.String("reason", reason),
	))
}

// NopMetrics returns a metrics implementation that records nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordLookup(ctx context.Context, meta SegmentMeta, hit bool, stale bool) {}
func (m *noopMetrics) RecordPopulation(ctx context.Context, meta SegmentMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordValidationFailure(ctx context.Context, meta SegmentMeta, reason string) {}
