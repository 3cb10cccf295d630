package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (RefreshCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)

	c, err := NewRedisCache("redis://"+srv.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, srv
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache("not-a-url", "")
	require.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	t.Parallel()

	// Ping должен завалить создание, если Redis недоступен.
	_, err := NewRedisCache("redis://127.0.0.1:1", "")
	require.Error(t, err)
}

func TestCache_SetGetDel_Roundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	entry := &RefreshEntry{
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second).UTC(),
	}

	require.NoError(t, c.Set(ctx, "hash-1", entry, time.Hour))

	got, ok, err := c.Get(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry.UserID, got.UserID)
	require.Equal(t, entry.ExpiresAt.Unix(), got.ExpiresAt.Unix())

	require.NoError(t, c.Del(ctx, "hash-1"))

	_, ok, err = c.Get(ctx, "hash-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	got, ok, err := c.Get(context.Background(), "no-such-hash")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	entry := &RefreshEntry{UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, c.Set(ctx, "hash-ttl", entry, time.Minute))

	// miniredis позволяет промотать время вперёд.
	srv.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "hash-ttl")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_KeysAreIsolatedByPrefix(t *testing.T) {
	srv := miniredis.RunT(t)

	a, err := NewRedisCache("redis://"+srv.Addr(), "a:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	b, err := NewRedisCache("redis://"+srv.Addr(), "b:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	ctx := context.Background()
	entry := &RefreshEntry{UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, a.Set(ctx, "same-hash", entry, time.Hour))

	_, ok, err := b.Get(ctx, "same-hash")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = a.Get(ctx, "same-hash")
	require.NoError(t, err)
	require.True(t, ok)
}
