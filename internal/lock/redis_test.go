package lock

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_AcquireRelease(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewRedisLocker(client, "test:lock:")
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "standup-1/2024-01-08", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// second acquisition of the same key fails without error
	_, ok2, err := l.Acquire(ctx, "standup-1/2024-01-08", 5*time.Second)
	require.NoError(t, err)
	require.False(t, ok2)

	// a different key is independent
	release2, ok3, err := l.Acquire(ctx, "standup-2/2024-01-08", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok3)
	release2()

	release()
	_, ok4, err := l.Acquire(ctx, "standup-1/2024-01-08", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok4)
}

func TestRedisLocker_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewRedisLocker(client, "")
	ctx := context.Background()

	_, ok, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(2 * time.Second)

	_, ok2, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok2, "lock should expire with its TTL")
}
