package retry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/seb7887/gofw/backoff"
	"github.com/seb7887/gofw/backoff/eventbus"
	"github.com/seb7887/gofw/backoff/observability"
	"github.com/seb7887/gofw/backoff/retry"
	"github.com/seb7887/gofw/backoff/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errTransient = errors.New("transient")

// fakeSleep records requested waits without blocking.
type fakeSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	return ctx.Err()
}

func (f *fakeSleep) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

// failing returns an operation that fails n times before succeeding.
func failing(n int, calls *int) retry.Operation {
	return func(context.Context) error {
		*calls++
		if *calls <= n {
			return errTransient
		}
		return nil
	}
}

func newRetrier(t *testing.T, maxAttempts int, opts ...retry.Option) (*retry.Retrier, *fakeSleep) {
	t.Helper()
	fs := &fakeSleep{}
	r, err := retry.Fixed(500*time.Millisecond, maxAttempts, append([]retry.Option{retry.WithSleep(fs.sleep)}, opts...)...)
	require.NoError(t, err)
	return r, fs
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	r, fs := newRetrier(t, 3)

	calls := 0
	require.NoError(t, r.Do(context.Background(), failing(0, &calls)))
	assert.Equal(t, 1, calls)
	assert.Empty(t, fs.recorded())
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	var retries []int
	r, fs := newRetrier(t, 3, retry.WithOnRetry(func(err error, attempt int, delay time.Duration) {
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 500*time.Millisecond, delay)
		retries = append(retries, attempt)
	}))

	calls := 0
	require.NoError(t, r.Do(context.Background(), failing(2, &calls)))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, fs.recorded())
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var aborted []int
	r, fs := newRetrier(t, 3,
		retry.WithIDGenerator(func() string { return "session-1" }),
		retry.WithOnAbort(func(err error, attempts int) {
			aborted = append(aborted, attempts)
		}),
	)

	calls := 0
	err := r.Do(context.Background(), failing(100, &calls))
	require.Error(t, err)

	assert.Equal(t, 4, calls, "initial attempt plus three retries")
	assert.Len(t, fs.recorded(), 3)
	assert.Equal(t, []int{4}, aborted)

	assert.ErrorIs(t, err, retry.ErrAborted)
	assert.ErrorIs(t, err, errTransient)

	var abortErr *retry.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, "session-1", abortErr.Session)
	assert.Equal(t, 4, abortErr.Attempts)
	assert.Equal(t, 1500*time.Millisecond, abortErr.Elapsed)
	assert.Len(t, abortErr.Errors(), 4)
	assert.Contains(t, err.Error(), "aborted after 4 attempts")
}

func TestDo_ZeroMaxAttemptsRunsOnce(t *testing.T) {
	r, fs := newRetrier(t, 0)

	calls := 0
	err := r.Do(context.Background(), failing(1, &calls))
	assert.ErrorIs(t, err, retry.ErrAborted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, fs.recorded())
}

func TestDo_FilterStopsImmediately(t *testing.T) {
	errFatal := errors.New("fatal")
	r, fs := newRetrier(t, 3, retry.WithFilter(func(err error) bool {
		return !errors.Is(err, errFatal)
	}))

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errFatal
	})

	assert.Same(t, errFatal, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, fs.recorded())
}

func TestDo_ContextCanceledWhileWaiting(t *testing.T) {
	hourly, err := backoff.NewFixed(time.Hour)
	require.NoError(t, err)
	r, err := retry.New(backoff.NewConfig(hourly, backoff.WithMaxAttempts(3), backoff.WithUnlimitedElapsedTime()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = r.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_RealSleep(t *testing.T) {
	r, err := retry.Fixed(time.Millisecond, 2)
	require.NoError(t, err)

	calls := 0
	start := time.Now()
	require.NoError(t, r.Do(context.Background(), failing(2, &calls)))
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestDo_InvalidState(t *testing.T) {
	negative := backoff.AlgorithmFunc(func(int, time.Duration) backoff.Result {
		return backoff.Delay(-time.Second)
	})
	r, err := retry.Of(negative, 3)
	require.NoError(t, err)

	calls := 0
	err = r.Do(context.Background(), failing(5, &calls))
	assert.ErrorIs(t, err, backoff.ErrInvalidState)
	assert.ErrorIs(t, err, errTransient)
	assert.NotErrorIs(t, err, retry.ErrAborted)
	assert.Equal(t, 1, calls)
}

func TestDo_PublishesEvents(t *testing.T) {
	bus := eventbus.NewInMemBus()
	var (
		mu     sync.Mutex
		events []eventbus.Event
	)
	require.NoError(t, bus.Subscribe("retries", eventbus.ReceiverFunc(func(_ context.Context, msg eventbus.Message) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, msg.(eventbus.Event))
	})))

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	r, _ := newRetrier(t, 3,
		retry.WithName("fetch"),
		retry.WithPublisher(bus, "retries"),
		retry.WithIDGenerator(func() string { return "s-1" }),
		retry.WithClock(func() time.Time { return at }),
	)

	calls := 0
	require.NoError(t, r.Do(context.Background(), failing(2, &calls)))
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, eventbus.Event{
		Session: "s-1", Name: "fetch", Kind: eventbus.KindRetry, Attempt: 1,
		Delay: 500 * time.Millisecond, Elapsed: 500 * time.Millisecond, Error: "transient", At: at,
	}, events[0])
	assert.Equal(t, eventbus.KindRetry, events[1].Kind)
	assert.Equal(t, eventbus.KindSuccess, events[2].Kind)
	assert.Equal(t, 3, events[2].Attempt)
}

func TestDo_LogsAbort(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r, _ := newRetrier(t, 1, retry.WithLogger(zap.New(core)), retry.WithName("fetch"))

	calls := 0
	require.Error(t, r.Do(context.Background(), failing(5, &calls)))

	assert.Equal(t, 1, logs.FilterMessage("retrying").Len())
	warn := logs.FilterMessage("giving up").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zapcore.WarnLevel, warn[0].Level)
	assert.Equal(t, "fetch", warn[0].ContextMap()["name"])
}

type fakeRecorder struct {
	retries   int
	aborts    []string
	successes []int
}

func (f *fakeRecorder) RecordRetry(string, int, time.Duration) { f.retries++ }
func (f *fakeRecorder) RecordAbort(_ string, reason string, _ int) {
	f.aborts = append(f.aborts, reason)
}
func (f *fakeRecorder) RecordSuccess(_ string, attempts int) {
	f.successes = append(f.successes, attempts)
}

func TestDo_RecordsMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	r, _ := newRetrier(t, 1, retry.WithRecorder(rec))

	calls := 0
	require.NoError(t, r.Do(context.Background(), failing(1, &calls)))
	calls = 0
	require.Error(t, r.Do(context.Background(), failing(5, &calls)))

	assert.Equal(t, 2, rec.retries)
	assert.Equal(t, []int{2}, rec.successes)
	assert.Equal(t, []string{observability.ReasonExhausted}, rec.aborts)
}

func TestDoSession_ResumesFromStore(t *testing.T) {
	snapshots := store.NewInMemory()
	r, fs := newRetrier(t, 2, retry.WithStore(snapshots))
	ctx := context.Background()

	require.NoError(t, snapshots.Save(ctx, "job-7", backoff.Snapshot{Attempts: 2, Elapsed: time.Second}))

	calls := 0
	err := r.DoSession(ctx, "job-7", failing(5, &calls))

	var abortErr *retry.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, 1, calls, "ceiling already consumed before the restart")
	assert.Equal(t, 3, abortErr.Attempts)
	assert.Empty(t, fs.recorded())
	assert.Equal(t, 0, snapshots.Len())
}

func TestDoSession_PersistsWhileWaiting(t *testing.T) {
	snapshots := store.NewInMemory()
	var seen []backoff.Snapshot
	fs := &fakeSleep{}
	r, err := retry.Fixed(time.Second, 5, retry.WithStore(snapshots), retry.WithSleep(func(ctx context.Context, d time.Duration) error {
		snap, err := snapshots.Load(ctx, "job-8")
		require.NoError(t, err)
		seen = append(seen, snap)
		return fs.sleep(ctx, d)
	}))
	require.NoError(t, err)

	calls := 0
	require.NoError(t, r.DoSession(context.Background(), "job-8", failing(2, &calls)))

	assert.Equal(t, []backoff.Snapshot{
		{Attempts: 1, Elapsed: time.Second},
		{Attempts: 2, Elapsed: 2 * time.Second},
	}, seen)
	assert.Equal(t, 0, snapshots.Len())
}

func TestDoValue(t *testing.T) {
	r, _ := newRetrier(t, 3)

	calls := 0
	v, err := retry.DoValue(context.Background(), r, func(ctx context.Context) (string, error) {
		if err := failing(1, &calls)(ctx); err != nil {
			return "", err
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestFactories_Validate(t *testing.T) {
	_, err := retry.Fixed(0, 3)
	assert.ErrorIs(t, err, backoff.ErrInvalidConfig)

	_, err = retry.Exponential(0.5, 3)
	assert.ErrorIs(t, err, backoff.ErrInvalidConfig)

	_, err = retry.Random(time.Second, time.Second, 3)
	assert.ErrorIs(t, err, backoff.ErrInvalidConfig)

	_, err = retry.Of(nil, 3)
	assert.ErrorIs(t, err, backoff.ErrInvalidConfig)

	_, err = retry.Fixed(time.Second, -1)
	assert.ErrorIs(t, err, backoff.ErrInvalidConfig)
}

func TestFactories_Exponential(t *testing.T) {
	r, err := retry.Exponential(2.0, 4)
	require.NoError(t, err)

	cfg := r.Config()
	assert.Equal(t, 4, cfg.MaxAttempts)
	exp, ok := cfg.Algorithm.(*backoff.Exponential)
	require.True(t, ok)
	assert.Equal(t, 2.0, exp.Config().Multiplier)
	assert.Equal(t, backoff.DefaultJitter, exp.Config().Jitter)
}

func TestFactories_Random(t *testing.T) {
	fs := &fakeSleep{}
	r, err := retry.Random(10*time.Millisecond, 20*time.Millisecond, 5, retry.WithSleep(fs.sleep))
	require.NoError(t, err)

	calls := 0
	require.Error(t, r.Do(context.Background(), failing(10, &calls)))
	for _, d := range fs.recorded() {
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

func TestDo_AbortErrorKeepsRecentFailures(t *testing.T) {
	r, _ := newRetrier(t, retry.MaxRecordedErrors+5)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("failure %d", calls)
	})

	var abortErr *retry.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, retry.MaxRecordedErrors+6, calls)

	recorded := abortErr.Errors()
	require.Len(t, recorded, retry.MaxRecordedErrors)
	assert.EqualError(t, recorded[0], fmt.Sprintf("failure %d", calls-retry.MaxRecordedErrors+1))
	assert.EqualError(t, recorded[len(recorded)-1], fmt.Sprintf("failure %d", calls))
}
