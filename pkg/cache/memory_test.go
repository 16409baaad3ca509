package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryServiceRoundTrip(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	_, found, err := svc.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, svc.Set(ctx, "k", "v", time.Minute))
	val, found, err := svc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", val)

	require.NoError(t, svc.Delete(ctx, "k"))
	_, found, _ = svc.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryServiceIncrement(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	// TTL is set on creation only, matching the Redis INCR+EXPIRE pattern.
	first, err := svc.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := svc.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	ttl, ok, err := svc.TTL(ctx, "counter")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestMemoryServiceExpiry(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := svc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// An expired counter restarts from one.
	_, err = svc.Increment(ctx, "c", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	count, err := svc.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
