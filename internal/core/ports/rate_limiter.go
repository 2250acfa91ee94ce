package ports

import (
	"context"
	"time"
)

// RateLimiter counts attempts per key inside a fixed window.
type RateLimiter interface {
	// Allow records one attempt for key and reports whether it is within limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
