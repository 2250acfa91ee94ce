package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client), mr
}

func TestRateLimiter_Key(t *testing.T) {
	l := NewRateLimiter(nil)
	if got := l.key("login:10.0.0.1"); got != "ratelimit:login:10.0.0.1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRateLimiter_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	l := NewRateLimiter(client)
	allowed, err := l.Allow(context.Background(), "login:10.0.0.1", 5, time.Minute)
	if err == nil {
		t.Fatalf("expected an error from an unreachable server")
	}
	if allowed {
		t.Fatalf("expected allowed=false alongside the error")
	}
}

func TestConnect_UnreachableServer(t *testing.T) {
	client, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond})
	if err == nil {
		client.Close()
		t.Fatalf("expected ping to fail")
	}
}

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		allowed, err := l.Allow(ctx, "login:10.0.0.1", 5, 5*time.Minute)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}

	allowed, err := l.Allow(ctx, "login:10.0.0.1", 5, 5*time.Minute)
	if err != nil {
		t.Fatalf("attempt 6: %v", err)
	}
	if allowed {
		t.Fatalf("attempt 6 should be rejected")
	}

	allowed, _ = l.Allow(ctx, "login:10.0.0.2", 5, 5*time.Minute)
	if !allowed {
		t.Fatalf("another client must have its own window")
	}
}

func TestRateLimiter_WindowStartsOnFirstAttempt(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()
	const key = "ratelimit:register:10.0.0.1"

	if _, err := l.Allow(ctx, "register:10.0.0.1", 3, 10*time.Minute); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 10*time.Minute {
		t.Fatalf("expected a 10m TTL after the first attempt, got %s", ttl)
	}

	mr.FastForward(4 * time.Minute)
	if _, err := l.Allow(ctx, "register:10.0.0.1", 3, 10*time.Minute); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 6*time.Minute {
		t.Fatalf("later attempts must not extend the window, got TTL %s", ttl)
	}
}

func TestRateLimiter_WindowResetsAfterExpiry(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = l.Allow(ctx, "register:10.0.0.1", 3, 10*time.Minute)
	}
	if allowed, _ := l.Allow(ctx, "register:10.0.0.1", 3, 10*time.Minute); allowed {
		t.Fatalf("expected the client to be limited")
	}

	mr.FastForward(10 * time.Minute)

	allowed, err := l.Allow(ctx, "register:10.0.0.1", 3, 10*time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !allowed {
		t.Fatalf("expected a fresh window after expiry")
	}
}

func TestRateLimiter_CounterWithoutTTLGetsOne(t *testing.T) {
	l, mr := newTestLimiter(t)
	const key = "ratelimit:login:10.0.0.9"

	// A counter left without expiry must not lock the client out for good.
	if err := mr.Set(key, "42"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	allowed, err := l.Allow(context.Background(), "login:10.0.0.9", 5, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Fatalf("expected the over-limit counter to reject")
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected the counter to receive a TTL, got %s", ttl)
	}

	mr.FastForward(time.Minute)
	if allowed, _ := l.Allow(context.Background(), "login:10.0.0.9", 5, time.Minute); !allowed {
		t.Fatalf("expected the client to recover once the window passed")
	}
}
