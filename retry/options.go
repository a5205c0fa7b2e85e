package retry

import (
	"context"
	"time"

	"github.com/seb7887/gofw/backoff/eventbus"
	"github.com/seb7887/gofw/backoff/idgen"
	"github.com/seb7887/gofw/backoff/observability"
	"github.com/seb7887/gofw/backoff/store"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Option func(*Retrier)

// WithName labels logs, metrics, spans and events of the retried operation.
func WithName(name string) Option {
	return func(r *Retrier) {
		r.name = name
	}
}

// WithFilter sets the predicate deciding which failures are retried.
// Failures rejected by the filter are returned unchanged, without consulting the backoff.
func WithFilter(filter func(error) bool) Option {
	return func(r *Retrier) {
		if filter != nil {
			r.filter = filter
		}
	}
}

// WithOnRetry sets a callback invoked before waiting for each granted retry.
// attempt is the 1-indexed retry number.
func WithOnRetry(onRetry func(err error, attempt int, delay time.Duration)) Option {
	return func(r *Retrier) {
		if onRetry != nil {
			r.onRetry = onRetry
		}
	}
}

// WithOnAbort sets a callback invoked when the backoff gives up.
func WithOnAbort(onAbort func(err error, attempts int)) Option {
	return func(r *Retrier) {
		if onAbort != nil {
			r.onAbort = onAbort
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSleep replaces the ctx-aware wait between attempts. Tests use it to avoid real time.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Retrier) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithPublisher publishes session transitions on bus under topic.
func WithPublisher(bus eventbus.Bus, topic string) Option {
	return func(r *Retrier) {
		r.bus = bus
		if topic == "" {
			topic = eventbus.DefaultTopic
		}
		r.topic = topic
	}
}

func WithRecorder(recorder observability.Recorder) Option {
	return func(r *Retrier) {
		if recorder != nil {
			r.recorder = recorder
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(r *Retrier) {
		r.tracer = observability.NewTracer(provider)
	}
}

// WithIDGenerator sets how Do names its sessions.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(r *Retrier) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithStore persists the session counters after each decision so that DoSession can
// resume a session interrupted by a restart.
func WithStore(s store.Store) Option {
	return func(r *Retrier) {
		r.store = s
	}
}

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Retrier) {
		if now != nil {
			r.now = now
		}
	}
}
