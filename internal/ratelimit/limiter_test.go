package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-assist-be/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func TestCheckWindowLimit(t *testing.T) {
	limiter := NewLimiter(cache.NewMemoryService(), time.Minute, 10, nopLogger{})
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		res := limiter.Check(ctx, "anon:abc")
		require.True(t, res.Allowed, "request %d should pass", i)
	}

	res := limiter.Check(ctx, "anon:abc")
	assert.False(t, res.Allowed)
	assert.GreaterOrEqual(t, res.RetryAfter, time.Second)
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)
}

func TestCheckIdentitiesAreIndependent(t *testing.T) {
	limiter := NewLimiter(cache.NewMemoryService(), time.Minute, 2, nopLogger{})
	ctx := context.Background()

	limiter.Check(ctx, "user:alice")
	limiter.Check(ctx, "user:alice")
	blocked := limiter.Check(ctx, "user:alice")
	require.False(t, blocked.Allowed)

	other := limiter.Check(ctx, "anon:visitor")
	assert.True(t, other.Allowed)
}

func TestCheckFailsOpen(t *testing.T) {
	limiter := NewLimiter(downCache{}, time.Minute, 1, nopLogger{})

	for i := 0; i < 5; i++ {
		res := limiter.Check(context.Background(), "user:bob")
		assert.True(t, res.Allowed)
	}
}

func TestCheckRetryAfterFloor(t *testing.T) {
	svc := cache.NewMemoryService()
	limiter := NewLimiter(svc, 100*time.Millisecond, 1, nopLogger{})
	ctx := context.Background()

	limiter.Check(ctx, "anon:x")
	res := limiter.Check(ctx, "anon:x")
	require.False(t, res.Allowed)
	// Even with a nearly expired window the client is told at least 1s.
	assert.GreaterOrEqual(t, res.RetryAfter, time.Second)
}

// downCache fails every operation.
type downCache struct{}

var errDown = errors.New("cache down")

func (downCache) Get(context.Context, string) (string, bool, error) { return "", false, errDown }
func (downCache) Set(context.Context, string, string, time.Duration) error {
	return errDown
}
func (downCache) Delete(context.Context, string) error { return errDown }
func (downCache) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errDown
}
func (downCache) TTL(context.Context, string) (time.Duration, bool, error) {
	return 0, false, errDown
}
