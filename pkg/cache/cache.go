package cache

import (
	"context"
	"time"
)

// Service is the shared fast cache every component receives through its
// constructor. Implementations must make Increment atomic; rate limiting is
// wrong under concurrency otherwise.
type Service interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Increment adds 1 to the counter at key and returns the new value. The
	// counter is created at 1 when absent; ttl applies only on creation.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the remaining lifetime of key, or false if the key has no
	// expiry or does not exist.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
}
