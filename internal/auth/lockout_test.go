package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockoutThreshold(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLockoutStore(3, 15*time.Minute)

	locked, _, err := store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, locked)

	for i := 0; i < 2; i++ {
		until, err := store.RecordFailure(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Nil(t, until)
	}

	until, err := store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, until)
	assert.InDelta(t, (15 * time.Minute).Seconds(), time.Until(*until).Seconds(), 5)

	locked, lockedUntil, err := store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, *until, lockedUntil)
}

func TestMemoryLockoutWindowElapses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLockoutStore(2, 15*time.Minute)

	current := time.Now().UTC()
	store.now = func() time.Time { return current }

	_, err := store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	until, err := store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, until)

	locked, _, err := store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, locked)

	current = current.Add(16 * time.Minute)

	locked, _, err = store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, locked)

	// Counter was reset when the lock engaged; the next failure starts a
	// fresh window instead of locking immediately.
	until, err = store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Nil(t, until)
}

func TestMemoryLockoutSuccessResets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLockoutStore(3, 15*time.Minute)

	for i := 0; i < 2; i++ {
		_, err := store.RecordFailure(ctx, "admin@example.com")
		require.NoError(t, err)
	}
	require.NoError(t, store.RecordSuccess(ctx, "admin@example.com"))

	// Two previous failures are gone: three more are needed again.
	for i := 0; i < 2; i++ {
		until, err := store.RecordFailure(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Nil(t, until)
	}
}

func TestMemoryLockoutAccountsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLockoutStore(2, 15*time.Minute)

	_, err := store.RecordFailure(ctx, "a@example.com")
	require.NoError(t, err)
	until, err := store.RecordFailure(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, until)

	locked, _, err := store.CheckLocked(ctx, "b@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisLockoutThresholdAndReset(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	store := NewRedisLockoutStore(client, 3, 15*time.Minute)

	for i := 0; i < 2; i++ {
		until, err := store.RecordFailure(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Nil(t, until)
	}

	until, err := store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, until)

	locked, _, err := store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, store.RecordSuccess(ctx, "admin@example.com"))

	locked, _, err = store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestRedisLockoutExpires(t *testing.T) {
	ctx := context.Background()
	server, client := newTestRedis(t)
	store := NewRedisLockoutStore(client, 2, 15*time.Minute)

	_, err := store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	until, err := store.RecordFailure(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, until)

	server.FastForward(16 * time.Minute)

	locked, _, err := store.CheckLocked(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}
