package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts attempts in fixed windows backed by Redis.
// Key format: ratelimit:<key>
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a RateLimiter wrapping the given Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// fixedWindow increments the counter and gives it a TTL whenever it has
// none, so a key can never outlive its window. Both steps run atomically.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Allow records one attempt for key and reports whether the attempt fits
// within limit for the current window. The window starts on the first
// attempt and expires after window.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := fixedWindow.Run(ctx, l.client, []string{l.key(key)}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return n <= int64(limit), nil
}

// Ping checks that Redis is reachable.
func (l *RateLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RateLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
