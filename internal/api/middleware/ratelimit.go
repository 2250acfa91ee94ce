package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/api/metrics"
	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

// RateLimitPolicy caps the attempts a single client may make on a route.
type RateLimitPolicy struct {
	Scope  string
	Limit  int
	Window time.Duration
}

var (
	LoginPolicy    = RateLimitPolicy{Scope: "login", Limit: 5, Window: 5 * time.Minute}
	RegisterPolicy = RateLimitPolicy{Scope: "register", Limit: 3, Window: 10 * time.Minute}
)

// RateLimit rejects clients that exceed policy with domain.ErrTooManyAttempts.
// Clients are identified by IP. A limiter failure lets the request through.
func RateLimit(limiter ports.RateLimiter, policy RateLimitPolicy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := policy.Scope + ":" + c.RealIP()

			allowed, err := limiter.Allow(c.Request().Context(), key, policy.Limit, policy.Window)
			if err != nil {
				log.Warn().Err(err).Str("scope", policy.Scope).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !allowed {
				metrics.RateLimitedTotal.WithLabelValues(policy.Scope).Inc()
				return domain.ErrTooManyAttempts
			}
			return next(c)
		}
	}
}
