package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seb7887/gofw/backoff"
	"github.com/seb7887/gofw/backoff/eventbus"
	"github.com/seb7887/gofw/backoff/idgen"
	"github.com/seb7887/gofw/backoff/observability"
	"github.com/seb7887/gofw/backoff/store"
	"go.uber.org/zap"
)

// Operation is the unit of work being retried.
type Operation func(ctx context.Context) error

// Retrier runs operations, waiting between failed attempts for as long as a fresh
// backoff session per call allows. A Retrier is immutable after creation and safe for
// concurrent use; every call gets its own session.
type Retrier struct {
	config backoff.Config
	name   string

	filter  func(error) bool
	onRetry func(err error, attempt int, delay time.Duration)
	onAbort func(err error, attempts int)

	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	bus      eventbus.Bus
	topic    string
	recorder observability.Recorder
	tracer   *observability.Tracer
	store    store.Store
	newID    idgen.Generator
	now      func() time.Time
}

// New creates a Retrier from cfg. The configuration is validated once here.
func New(cfg backoff.Config, opts ...Option) (*Retrier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Retrier{
		config:   cfg,
		filter:   func(error) bool { return true },
		onRetry:  func(error, int, time.Duration) {},
		onAbort:  func(error, int) {},
		logger:   zap.NewNop(),
		sleep:    sleepContext,
		topic:    eventbus.DefaultTopic,
		recorder: observability.NopRecorder{},
		tracer:   observability.NewTracer(nil),
		newID:    idgen.NewSessionID,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Do runs op until it succeeds, the failure is filtered out, the backoff aborts or ctx is done.
//
// On abort the returned error is an *AbortError wrapping the last failure. When ctx ends
// during a wait, the context error joined with the last failure is returned.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	return r.DoSession(ctx, r.newID(), op)
}

// DoSession is Do with a caller chosen session id. With a store configured, a previous
// snapshot saved under the same id is resumed.
func (r *Retrier) DoSession(ctx context.Context, session string, op Operation) error {
	b, err := r.config.New()
	if err != nil {
		return err
	}
	if err := r.resume(ctx, session, b); err != nil {
		return err
	}

	log := r.logger.With(zap.String("session", session), zap.String("name", r.name))
	ctx, span := r.tracer.StartSession(ctx, r.name, session)

	var errs error
	for {
		err := op(ctx)
		if err == nil {
			attempts := b.Attempts() + 1
			log.Debug("operation succeeded", zap.Int("attempts", attempts))
			r.recorder.RecordSuccess(r.name, attempts)
			r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindSuccess, Attempt: attempts, Elapsed: b.Elapsed()})
			r.forget(ctx, log, session)
			r.tracer.EndSession(span, attempts, b.Elapsed(), nil)
			return nil
		}
		errs = record(errs, err)

		if !r.filter(err) {
			log.Debug("failure not retryable", zap.Error(err))
			r.recorder.RecordAbort(r.name, observability.ReasonFiltered, b.Attempts()+1)
			r.forget(ctx, log, session)
			r.tracer.EndSession(span, b.Attempts()+1, b.Elapsed(), err)
			return err
		}

		res, nerr := b.Next()
		if nerr != nil {
			log.Error("backoff algorithm misbehaved", zap.Error(nerr), zap.Int("attempt", b.Attempts()))
			r.recorder.RecordAbort(r.name, observability.ReasonInvalidState, b.Attempts())
			r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindInvalidState, Attempt: b.Attempts(), Elapsed: b.Elapsed(), Error: nerr.Error()})
			r.forget(ctx, log, session)
			nerr = errors.Join(nerr, err)
			r.tracer.EndSession(span, b.Attempts(), b.Elapsed(), nerr)
			return nerr
		}

		if res.Aborted() {
			abortErr := &AbortError{Session: session, Err: err, Attempts: b.Attempts(), Elapsed: b.Elapsed(), errs: errs}
			log.Warn("giving up", zap.Error(err), zap.Int("attempts", b.Attempts()), zap.Duration("elapsed", b.Elapsed()))
			r.onAbort(err, b.Attempts())
			r.recorder.RecordAbort(r.name, observability.ReasonExhausted, b.Attempts())
			r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindAbort, Attempt: b.Attempts(), Elapsed: b.Elapsed(), Error: err.Error()})
			r.forget(ctx, log, session)
			r.tracer.EndSession(span, b.Attempts(), b.Elapsed(), abortErr)
			return abortErr
		}

		delay := res.Interval()
		log.Debug("retrying", zap.Error(err), zap.Int("attempt", b.Attempts()), zap.Duration("delay", delay))
		r.onRetry(err, b.Attempts(), delay)
		r.recorder.RecordRetry(r.name, b.Attempts(), delay)
		r.tracer.AddRetryEvent(span, b.Attempts(), delay, err)
		r.publish(log, eventbus.Event{Session: session, Kind: eventbus.KindRetry, Attempt: b.Attempts(), Delay: delay, Elapsed: b.Elapsed(), Error: err.Error()})
		r.persist(ctx, log, session, b)

		if werr := r.sleep(ctx, delay); werr != nil {
			log.Debug("wait interrupted", zap.Error(werr))
			r.recorder.RecordAbort(r.name, observability.ReasonCanceled, b.Attempts())
			werr = errors.Join(werr, err)
			r.tracer.EndSession(span, b.Attempts(), b.Elapsed(), werr)
			return werr
		}
	}
}

// DoValue is Do for operations producing a value.
func DoValue[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var value T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	return value, err
}

// Config returns the backoff configuration sessions are built from.
func (r *Retrier) Config() backoff.Config {
	return r.config
}

func (r *Retrier) resume(ctx context.Context, session string, b *backoff.Backoff) error {
	if r.store == nil {
		return nil
	}

	snap, err := r.store.Load(ctx, session)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("retry: loading session %s: %w", session, err)
	}
	return b.Resume(snap)
}

// Store failures are logged, never returned.
func (r *Retrier) persist(ctx context.Context, log *zap.Logger, session string, b *backoff.Backoff) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, session, b.Snapshot()); err != nil {
		log.Warn("saving session snapshot", zap.Error(err))
	}
}

func (r *Retrier) forget(ctx context.Context, log *zap.Logger, session string) {
	if r.store == nil {
		return
	}
	if err := r.store.Delete(context.WithoutCancel(ctx), session); err != nil {
		log.Warn("deleting session snapshot", zap.Error(err))
	}
}

func (r *Retrier) publish(log *zap.Logger, ev eventbus.Event) {
	if r.bus == nil {
		return
	}
	ev.Name = r.name
	ev.At = r.now()
	if err := r.bus.Publish(r.topic, ev); err != nil {
		log.Warn("publishing retry event", zap.Error(err), zap.String("kind", string(ev.Kind)))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
