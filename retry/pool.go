package retry

import (
	"context"

	"github.com/seb7887/gofw/backoff/wp"
)

// Submit runs op with DoSession on the pool worker owning session, then calls done with the
// outcome. Submissions sharing a session id run one at a time, so a session is never driven
// concurrently. done may be nil.
func (r *Retrier) Submit(ctx context.Context, pool *wp.Pool, session string, op Operation, done func(error)) error {
	return pool.Submit(session, func() {
		err := r.DoSession(ctx, session, op)
		if done != nil {
			done(err)
		}
	})
}
