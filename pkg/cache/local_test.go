package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheRoundTrip(t *testing.T) {
	c, err := NewLocalCache(10)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Get(ctx, "unread:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "unread:1", int64(7), time.Minute))
	got, err := c.Get(ctx, "unread:1")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	require.NoError(t, c.Delete(ctx, "unread:1", "absent"))
	_, err = c.Get(ctx, "unread:1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLocalCacheExpiry(t *testing.T) {
	c, err := NewLocalCache(10)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", "a", time.Second))
	require.NoError(t, c.Set(ctx, "forever", "b", 0))

	now = now.Add(2 * time.Second)

	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	got, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Equal(t, 1, c.Len())
}

func TestLocalCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLocalCache(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestNewLocalCacheRejectsBadSize(t *testing.T) {
	_, err := NewLocalCache(0)
	assert.Error(t, err)
}
