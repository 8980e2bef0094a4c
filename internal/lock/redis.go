// Package lock provides a Redis-backed advisory lock, used to serialize
// document generation per (standupId, occurrence) when deployments want a
// guard in front of the store's uniqueness constraint.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a locker over the given client. Prefix may be
// empty, in which case "lock:" is used.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &RedisLocker{client: client, prefix: prefix}
}

// Acquire attempts to take the lock for key. On success it returns a
// release func and true; when another holder owns the lock it returns
// false without error. The TTL bounds how long a crashed holder can block
// others.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	full := l.prefix + key
	ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// best effort: only delete if we still own the lock
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := l.client.Get(ctx, full).Result(); err == nil && v == token {
			l.client.Del(ctx, full)
		}
	}
	return release, true, nil
}
