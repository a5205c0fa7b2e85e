package store

import (
	"context"
	"errors"

	"github.com/seb7887/gofw/backoff"
)

var ErrNotFound = errors.New("snapshot not found")

// Store persists the counters of retry sessions keyed by session id, so a session
// interrupted by a restart can resume with the ceilings it already consumed.
type Store interface {
	Save(ctx context.Context, session string, snap backoff.Snapshot) error
	Load(ctx context.Context, session string) (backoff.Snapshot, error)
	Delete(ctx context.Context, session string) error
}
