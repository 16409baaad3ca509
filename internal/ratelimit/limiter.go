package ratelimit

import (
	"context"
	"time"

	"market-assist-be/internal/pkg/logger"
	"market-assist-be/pkg/cache"
)

const counterPrefix = "ratelimit:"

// Limiter is a fixed-window counter on the shared cache. The increment is
// atomic on the cache side, so two connections hammering the same identity
// never read-modify-write past the limit. Bursts of up to ~2x the limit at a
// window boundary are accepted imprecision.
type Limiter struct {
	cache  cache.Service
	window time.Duration
	limit  int
	logger logger.ILogger
}

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

func NewLimiter(cacheService cache.Service, window time.Duration, limit int, log logger.ILogger) *Limiter {
	return &Limiter{
		cache:  cacheService,
		window: window,
		limit:  limit,
		logger: log,
	}
}

// Check counts one request for identity. Cache failures fail open: a broken
// Redis should slow down abuse handling, not lock every user out.
func (l *Limiter) Check(ctx context.Context, identity string) Result {
	key := counterPrefix + identity

	count, err := l.cache.Increment(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("RateLimit", "Counter increment failed, allowing request", map[string]interface{}{
			"identity": identity,
			"error":    err.Error(),
		})
		return Result{Allowed: true}
	}

	if count <= int64(l.limit) {
		return Result{Allowed: true}
	}

	retryAfter := l.window
	if ttl, ok, err := l.cache.TTL(ctx, key); err == nil && ok {
		retryAfter = ttl
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return Result{Allowed: false, RetryAfter: retryAfter}
}
