package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// memoryLimiter counts attempts per key without expiry.
type memoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

func callLimited(mw echo.MiddlewareFunc, ip string) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/connect", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	c := e.NewContext(req, httptest.NewRecorder())

	return mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
}

func TestRateLimit_CapsPerClient(t *testing.T) {
	limiter := &memoryLimiter{}
	mw := RateLimit(limiter, RateLimitPolicy{Scope: "login", Limit: 2, Window: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if err := callLimited(mw, "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i+1, err)
		}
	}
	if err := callLimited(mw, "10.0.0.1"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if err := callLimited(mw, "10.0.0.2"); err != nil {
		t.Fatalf("other client should not be limited, got %v", err)
	}
	if limiter.counts["login:10.0.0.1"] != 3 {
		t.Fatalf("expected key login:10.0.0.1 to be counted, got %v", limiter.counts)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &memoryLimiter{err: errors.New("redis down")}
	mw := RateLimit(limiter, LoginPolicy, zerolog.Nop())

	if err := callLimited(mw, "10.0.0.1"); err != nil {
		t.Fatalf("expected request to pass when the limiter fails, got %v", err)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	mw := RateLimit(nil, RegisterPolicy, zerolog.Nop())

	for i := 0; i < 10; i++ {
		if err := callLimited(mw, "10.0.0.1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
