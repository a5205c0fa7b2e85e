package policy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seb7887/gofw/backoff"
	"github.com/seb7887/gofw/backoff/observability"
)

// ErrMaxRetriesExceeded is returned when the backoff session of a request aborts.
var ErrMaxRetriesExceeded = errors.New("max retry attempts exceeded")

// RetryConfig configures the retry policy behavior.
type RetryConfig struct {
	// Backoff describes the session created for every request.
	// Default: backoff.DefaultConfig()
	Backoff *backoff.Config

	// ShouldRetry is a custom function to determine if a request should be retried.
	// If nil, uses the default retry condition (network errors + RetryableStatusCodes).
	ShouldRetry func(*http.Response, error) bool

	// RetryableStatusCodes defines which HTTP status codes should be retried.
	// Default: 429 (rate limit), 500, 502, 503, 504
	RetryableStatusCodes []int

	// OnlyIdempotent when true, only retries idempotent methods (GET, PUT, DELETE, HEAD, OPTIONS, TRACE).
	OnlyIdempotent bool

	// Name labels the metrics recorded by Recorder. Default: "http"
	Name string

	// Recorder receives retry telemetry. Default: observability.NopRecorder
	Recorder observability.Recorder

	// Sleep waits between attempts. Default: a timer that honours ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RetryPolicy retries failed requests, waiting between attempts as told by a fresh
// backoff session per request.
type RetryPolicy struct {
	config  RetryConfig
	backoff backoff.Config
}

// NewRetryPolicy creates a new retry policy with the given configuration.
// It fails if the backoff configuration is invalid.
func NewRetryPolicy(config RetryConfig) (*RetryPolicy, error) {
	cfg := backoff.DefaultConfig()
	if config.Backoff != nil {
		cfg = *config.Backoff
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if config.RetryableStatusCodes == nil {
		config.RetryableStatusCodes = []int{429, 500, 502, 503, 504}
	}
	if config.Name == "" {
		config.Name = "http"
	}
	if config.Recorder == nil {
		config.Recorder = observability.NopRecorder{}
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}

	return &RetryPolicy{
		config:  config,
		backoff: cfg,
	}, nil
}

// Execute implements the Policy interface by retrying failed requests.
func (r *RetryPolicy) Execute(ctx context.Context, req *http.Request, next Executor) (*http.Response, error) {
	if r.config.OnlyIdempotent && !isIdempotent(req.Method) {
		return next(ctx, req)
	}

	session, err := r.backoff.New()
	if err != nil {
		return nil, err
	}

	// Preserve request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
	}

	for {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := next(ctx, req)
		if !r.shouldRetry(resp, err) {
			if err == nil {
				r.config.Recorder.RecordSuccess(r.config.Name, session.Attempts()+1)
			}
			return resp, err
		}

		res, nerr := session.Next()
		if nerr != nil {
			r.config.Recorder.RecordAbort(r.config.Name, observability.ReasonInvalidState, session.Attempts())
			drain(resp)
			return nil, errors.Join(nerr, err)
		}
		if res.Aborted() {
			r.config.Recorder.RecordAbort(r.config.Name, observability.ReasonExhausted, session.Attempts())
			if err == nil && resp != nil {
				// The last response is handed back so callers can inspect the status.
				return resp, fmt.Errorf("%w: status %d after %d attempts", ErrMaxRetriesExceeded, resp.StatusCode, session.Attempts())
			}
			return resp, errors.Join(err, ErrMaxRetriesExceeded)
		}

		// Close response body if present to avoid resource leak
		drain(resp)

		r.config.Recorder.RecordRetry(r.config.Name, session.Attempts(), res.Interval())
		if werr := r.config.Sleep(ctx, res.Interval()); werr != nil {
			r.config.Recorder.RecordAbort(r.config.Name, observability.ReasonCanceled, session.Attempts())
			return nil, errors.Join(werr, err)
		}
	}
}

// shouldRetry determines if a request should be retried based on response and error.
func (r *RetryPolicy) shouldRetry(resp *http.Response, err error) bool {
	if r.config.ShouldRetry != nil {
		return r.config.ShouldRetry(resp, err)
	}

	// Network error - always retry
	if err != nil {
		return true
	}

	if resp != nil {
		for _, code := range r.config.RetryableStatusCodes {
			if resp.StatusCode == code {
				return true
			}
		}
	}

	return false
}

func drain(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

// isIdempotent returns true if the HTTP method is idempotent.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete,
		http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
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
