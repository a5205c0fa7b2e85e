package policy

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/seb7887/gofw/backoff/policy"

// InstrumentationPolicy provides OpenTelemetry distributed tracing for HTTP requests.
// Placed in front of a RetryPolicy, every attempt becomes a child span of the request span.
type InstrumentationPolicy struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewInstrumentationPolicy creates a new instrumentation policy.
// If provider is nil, uses the global tracer provider.
func NewInstrumentationPolicy(provider trace.TracerProvider) *InstrumentationPolicy {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &InstrumentationPolicy{
		tracer:     provider.Tracer(instrumentationName),
		propagator: otel.GetTextMapPropagator(),
	}
}

// Execute implements the Policy interface by wrapping the request with an OTEL span.
func (i *InstrumentationPolicy) Execute(ctx context.Context, req *http.Request, next Executor) (*http.Response, error) {
	ctx, span := i.tracer.Start(ctx, fmt.Sprintf("HTTP %s", req.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("http.host", req.URL.Host),
		),
	)
	defer span.End()

	i.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := next(ctx, req)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case resp != nil:
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	return resp, err
}
