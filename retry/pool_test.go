package retry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/seb7887/gofw/backoff/wp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_RunsSessionsOnPool(t *testing.T) {
	r, _ := newRetrier(t, 3)
	pool := wp.NewPool(4, 8)

	var (
		mu      sync.Mutex
		results = map[string]error{}
	)
	sessions := []string{"a", "b", "c", "d", "e"}
	calls := make(map[string]*int, len(sessions))
	for _, s := range sessions {
		calls[s] = new(int)
	}

	for _, s := range sessions {
		session := s
		require.NoError(t, r.Submit(context.Background(), pool, session, failing(1, calls[session]), func(err error) {
			mu.Lock()
			defer mu.Unlock()
			results[session] = err
		}))
	}
	pool.Stop()

	require.Len(t, results, len(sessions))
	for _, s := range sessions {
		assert.NoError(t, results[s])
		assert.Equal(t, 2, *calls[s])
	}

	assert.ErrorIs(t, r.Submit(context.Background(), pool, "late", func(context.Context) error { return nil }, nil), wp.ErrStopped)
}
