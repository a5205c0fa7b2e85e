package retry

import (
	"context"
	"errors"
	"time"

	"github.com/seb7887/gofw/backoff/eventbus"
	"github.com/seb7887/gofw/backoff/observability"
	"go.uber.org/zap"
)

// Signal is emitted by Stream for each failure it consumes.
// A nil Err means the caller may retry now; a non-nil Err is terminal.
type Signal struct {
	Attempt int
	Delay   time.Duration
	Err     error
}

// Stream turns a channel of failures into a channel of retry signals driven by one backoff
// session. For every failure it either waits the granted interval and emits a retry Signal,
// or emits a terminal Signal carrying the failure (an *AbortError when the backoff gave up)
// and closes the output.
//
// The output is also closed when failures is closed or ctx is done. Callbacks, logging,
// metrics, events, tracing and snapshots behave as in Do. A stream session always starts
// fresh; its snapshot is saved after each retry decision and removed when the stream ends.
func (r *Retrier) Stream(ctx context.Context, failures <-chan error) <-chan Signal {
	out := make(chan Signal)

	go func() {
		defer close(out)

		session := r.newID()
		log := r.logger.With(zap.String("session", session), zap.String("name", r.name))

		b, err := r.config.New()
		if err != nil {
			send(ctx, out, Signal{Err: err})
			return
		}

		ctx, span := r.tracer.StartSession(ctx, r.name, session)
		var (
			errs    error
			outcome error
		)
		defer func() {
			r.forget(ctx, log, session)
			r.tracer.EndSession(span, b.Attempts(), b.Elapsed(), outcome)
		}()

		for {
			var failure error
			var ok bool
			select {
			case failure, ok = <-failures:
				if !ok {
					return
				}
			case <-ctx.Done():
				outcome = ctx.Err()
				return
			}
			errs = record(errs, failure)

			if !r.filter(failure) {
				log.Debug("failure not retryable", zap.Error(failure))
				r.recorder.RecordAbort(r.name, observability.ReasonFiltered, b.Attempts()+1)
				outcome = failure
				send(ctx, out, Signal{Attempt: b.Attempts(), Err: failure})
				return
			}

			res, nerr := b.Next()
			if nerr != nil {
				log.Error("backoff algorithm misbehaved", zap.Error(nerr), zap.Int("attempt", b.Attempts()))
				r.recorder.RecordAbort(r.name, observability.ReasonInvalidState, b.Attempts())
				r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindInvalidState, Attempt: b.Attempts(), Elapsed: b.Elapsed(), Error: nerr.Error()})
				outcome = errors.Join(nerr, failure)
				send(ctx, out, Signal{Attempt: b.Attempts(), Err: outcome})
				return
			}
			if res.Aborted() {
				log.Warn("giving up", zap.Error(failure), zap.Int("attempts", b.Attempts()), zap.Duration("elapsed", b.Elapsed()))
				r.onAbort(failure, b.Attempts())
				r.recorder.RecordAbort(r.name, observability.ReasonExhausted, b.Attempts())
				r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindAbort, Attempt: b.Attempts(), Elapsed: b.Elapsed(), Error: failure.Error()})
				outcome = &AbortError{Session: session, Err: failure, Attempts: b.Attempts(), Elapsed: b.Elapsed(), errs: errs}
				send(ctx, out, Signal{Attempt: b.Attempts(), Err: outcome})
				return
			}

			delay := res.Interval()
			log.Debug("retrying", zap.Error(failure), zap.Int("attempt", b.Attempts()), zap.Duration("delay", delay))
			r.onRetry(failure, b.Attempts(), delay)
			r.recorder.RecordRetry(r.name, b.Attempts(), delay)
			r.tracer.AddRetryEvent(span, b.Attempts(), delay, failure)
			r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindRetry, Attempt: b.Attempts(), Delay: delay, Elapsed: b.Elapsed(), Error: failure.Error()})
			r.persist(ctx, log, session, b)

			if err := r.sleep(ctx, delay); err != nil {
				log.Debug("wait interrupted", zap.Error(err))
				r.recorder.RecordAbort(r.name, observability.ReasonCanceled, b.Attempts())
				outcome = err
				return
			}
			if !send(ctx, out, Signal{Attempt: b.Attempts(), Delay: delay}) {
				outcome = ctx.Err()
				return
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- Signal, s Signal) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}
