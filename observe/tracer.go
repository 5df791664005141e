package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// SegmentMeta identifies a route segment for telemetry purposes.
type SegmentMeta struct {
	Route       string // Route template position (required)
	Slot        string // Slot path within the route tree (may be empty)
	Fingerprint string // Parameter fingerprint (may be empty)
}

// SpanName returns the deterministic span name for an operation on this
// segment. Format: seg.<op>.<route>
func (m SegmentMeta) SpanName(op string) string {
	return "seg." + op + "." + m.Route
}

// SegmentID returns the segment identity used in attributes and log fields.
func (m SegmentMeta) SegmentID() string {
	if m.Slot != "" {
		return m.Route + "#" + m.Slot
	}
	return m.Route
}

// Tracer wraps OpenTelemetry tracing with segment-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an operation on a segment.
	StartSpan(ctx context.Context, op string, meta SegmentMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with segment metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, op string, meta SegmentMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("seg.id", meta.SegmentID()),
		attribute.String("seg.route", meta.Route),
	}
	if meta.Slot != "" {
		attrs = append(attrs, attribute.String("seg.slot", meta.Slot))
	}
	if meta.Fingerprint != "" {
		attrs = append(attrs, attribute.String("seg.fingerprint", meta.Fingerprint))
	}

	return t.tracer.Start(ctx, meta.SpanName(op), trace.WithAttributes(attrs...))
}

// EndSpan ends the span, recording error status when err is non-nil.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

// Ensure tracerImpl implements Tracer
var _ Tracer = (*tracerImpl)(nil)
