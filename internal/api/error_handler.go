package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/api/handler"
	"github.com/eparriel/pfe-backend/internal/core/domain"
)

const validationMessage = "Validation failed"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: validationMessage, Fields: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// A decode failure passed through by the admin guard is reported like a
	// missing token.
	if errors.Is(err, domain.ErrTokenUndecodable) {
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrTokenRequired.Error()}
	}

	if code, ok := statusOf(err); ok {
		return code, errorResponse{Error: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// statusOf maps the business errors of the core to HTTP codes. Their
// messages are meant for clients and are rendered unchanged.
func statusOf(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidMeasurement):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenRequired):
		return http.StatusUnauthorized, true
	case errors.Is(err, domain.ErrAccessDenied),
		errors.Is(err, domain.ErrAdminOnly),
		errors.Is(err, domain.ErrUpdateForbidden),
		errors.Is(err, domain.ErrDeleteForbidden),
		errors.Is(err, domain.ErrViewForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, true
	case errors.Is(err, domain.ErrTelemetryDisabled):
		return http.StatusServiceUnavailable, true
	}
	return 0, false
}
