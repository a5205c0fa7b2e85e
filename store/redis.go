package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/seb7887/gofw/backoff"
)

// DefaultKeyPrefix namespaces snapshot keys.
const DefaultKeyPrefix = "backoff:session:"

var _ Store = (*Redis)(nil)

// Redis stores snapshots as JSON values that expire after a TTL, so abandoned
// sessions do not accumulate.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis store. A zero ttl keeps snapshots until deleted.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: DefaultKeyPrefix}
}

// WithPrefix returns a copy of the store using prefix for its keys.
func (r *Redis) WithPrefix(prefix string) *Redis {
	clone := *r
	clone.prefix = prefix
	return &clone
}

func (r *Redis) Save(ctx context.Context, session string, snap backoff.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(session), data, r.ttl).Err()
}

func (r *Redis) Load(ctx context.Context, session string) (backoff.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return backoff.Snapshot{}, ErrNotFound
		}
		return backoff.Snapshot{}, err
	}

	var snap backoff.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return backoff.Snapshot{}, err
	}
	return snap, nil
}

func (r *Redis) Delete(ctx context.Context, session string) error {
	return r.client.Del(ctx, r.key(session)).Err()
}

func (r *Redis) key(session string) string {
	return r.prefix + session
}
