package policy

import (
	"context"
	"net/http"
)

// Executor is a function that executes an HTTP request.
// It represents the next step in the policy chain (either another policy or the transport).
type Executor func(ctx context.Context, req *http.Request) (*http.Response, error)

// Policy wraps the execution of an HTTP request. Policies are chained with the
// decorator pattern, each one wrapping the next.
type Policy interface {
	Execute(ctx context.Context, req *http.Request, next Executor) (*http.Response, error)
}

// Chain creates an executor that chains multiple policies together.
// The first policy wraps the second, which wraps the third, and so on; final runs last.
//
// Example:
//
//	executor := Chain(
//	    []Policy{instrumentationPolicy, retryPolicy},
//	    http.DefaultClient.Do,
//	)
//	resp, err := executor(ctx, req)
func Chain(policies []Policy, final Executor) Executor {
	executor := final

	for i := len(policies) - 1; i >= 0; i-- {
		policy := policies[i]
		next := executor

		executor = func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return policy.Execute(ctx, req, next)
		}
	}

	return executor
}

// Transport adapts an *http.Client into the final Executor of a chain.
func Transport(client *http.Client) Executor {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return client.Do(req.WithContext(ctx))
	}
}
