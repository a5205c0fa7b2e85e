package policy_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seb7887/gofw/backoff/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutPolicy_AttemptDeadline(t *testing.T) {
	timeout := policy.NewTimeoutPolicy(policy.TimeoutConfig{Attempt: 10 * time.Millisecond})

	executor := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := timeout.Execute(context.Background(), req, executor)

	assert.ErrorIs(t, err, policy.ErrAttemptTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutPolicy_ParentDeadlinePassesThrough(t *testing.T) {
	timeout := policy.NewTimeoutPolicy(policy.TimeoutConfig{Attempt: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	executor := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := timeout.Execute(ctx, httptest.NewRequest(http.MethodGet, "/", nil), executor)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, policy.ErrAttemptTimeout))
}

func TestTimeoutPolicy_BodyReadableUntilClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "payload")
	}))
	defer server.Close()

	timeout := policy.NewTimeoutPolicy(policy.TimeoutConfig{Attempt: time.Second})
	executor := policy.Chain([]policy.Policy{timeout}, policy.Transport(server.Client()))

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := executor(context.Background(), req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.NoError(t, resp.Body.Close())
}

func TestTimeoutPolicy_RetriedAfterSlowAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	retryPolicy := newRetryPolicy(t, policy.RetryConfig{Backoff: fixedConfig(t, 2)})
	timeout := policy.NewTimeoutPolicy(policy.TimeoutConfig{Attempt: 50 * time.Millisecond})
	executor := policy.Chain([]policy.Policy{retryPolicy, timeout}, policy.Transport(server.Client()))

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := executor(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}
