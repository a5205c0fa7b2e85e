package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/seb7887/gofw/backoff"
)

// Tracer provides OpenTelemetry spans for retry sessions.
// A session gets one span; every granted retry becomes an event on it.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer with the given provider.
// If provider is nil, uses the global tracer provider.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Tracer{
		tracer: provider.Tracer(instrumentationName),
	}
}

// StartSession creates the span of a retry session and returns the updated context.
func (t *Tracer) StartSession(ctx context.Context, name, session string) (context.Context, trace.Span) {
	spanName := "retry"
	if name != "" {
		spanName = "retry " + name
	}

	return t.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("backoff.session", session),
			attribute.String("backoff.name", name),
		),
	)
}

// AddRetryEvent records a failed attempt followed by a granted retry.
func (t *Tracer) AddRetryEvent(span trace.Span, attempt int, delay time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("backoff.attempt", attempt),
		attribute.Int64("backoff.delay_ms", delay.Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("backoff.error", err.Error()))
	}
	span.AddEvent("retry", trace.WithAttributes(attrs...))
}

// EndSession completes the span with the final counters and outcome.
func (t *Tracer) EndSession(span trace.Span, attempts int, elapsed time.Duration, err error) {
	span.SetAttributes(
		attribute.Int("backoff.attempts", attempts),
		attribute.Int64("backoff.elapsed_ms", elapsed.Milliseconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
