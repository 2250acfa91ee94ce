package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eparriel/pfe-backend/internal/api/middleware"
	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// currentPrincipal returns the principal attached by the guard. A route
// mounted without a guard has none and is rejected like a missing token.
func currentPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, domain.ErrTokenRequired
	}
	return p, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Validation failed (numeric string is expected)")
	}
	return id, nil
}
