package observe

import (
	"context"
	"time"
)

// PopulateFunc is the signature for artifact population functions.
// This is the function shape that Middleware wraps.
type PopulateFunc func(ctx context.Context, meta SegmentMeta) ([]byte, error)

// Middleware wraps artifact population with observability (tracing,
// metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe PopulateFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated
//     unchanged.
//   - Ownership: Artifacts are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability
// components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a PopulateFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn PopulateFunc) PopulateFunc {
	return func(ctx context.Context, meta SegmentMeta) ([]byte, error) {
		ctx, span := m.tracer.StartSpan(ctx, "populate", meta)

		start := time.Now()
		artifact, err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordPopulation(ctx, meta, duration, err)

		segLogger := m.logger.WithSegment(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			segLogger.Error(ctx, "segment population failed", fields...)
		} else {
			segLogger.Debug(ctx, "segment population completed", fields...)
		}

		return artifact, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
