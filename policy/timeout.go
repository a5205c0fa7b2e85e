package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrAttemptTimeout is returned when a single attempt outlives its deadline.
var ErrAttemptTimeout = errors.New("attempt timeout")

// DefaultAttemptTimeout bounds one attempt when TimeoutConfig.Attempt is zero.
const DefaultAttemptTimeout = 30 * time.Second

// TimeoutConfig configures the per-attempt deadline.
type TimeoutConfig struct {
	// Attempt bounds each call to the next executor. Placed after a RetryPolicy in the
	// chain, every retry gets a fresh deadline while the caller's ctx bounds the session.
	// Default: 30 seconds
	Attempt time.Duration
}

// TimeoutPolicy wraps each execution with a context deadline.
type TimeoutPolicy struct {
	config TimeoutConfig
}

func NewTimeoutPolicy(config TimeoutConfig) *TimeoutPolicy {
	if config.Attempt <= 0 {
		config.Attempt = DefaultAttemptTimeout
	}

	return &TimeoutPolicy{
		config: config,
	}
}

// Execute implements Policy. The deadline stays active until the response body is closed.
func (t *TimeoutPolicy) Execute(ctx context.Context, req *http.Request, next Executor) (*http.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Attempt)

	resp, err := next(attemptCtx, req)
	if err != nil {
		cancel()
		// Only the attempt deadline maps to ErrAttemptTimeout; a parent deadline passes through.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return resp, fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, t.config.Attempt, err)
		}
		return resp, err
	}
	if resp == nil || resp.Body == nil {
		cancel()
		return resp, nil
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
