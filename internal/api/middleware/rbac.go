package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/core/ports"
)

// Admin guards routes reserved to administrators. It shares the decode step
// of Auth and adds the role check of AdminOnly.
func Admin(codec ports.TokenCodec, log zerolog.Logger) echo.MiddlewareFunc {
	return Guard("admin", codec, AdminOnly, log)
}
