package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/api/metrics"
	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

const principalKey = "principal"

var errNoToken = errors.New("no auth token")

// Decoded is the outcome of reading and verifying a request's bearer token.
//   - Principal is set when the token verified.
//   - Err holds a failure that is not about the token itself.
//   - Info holds a token-level failure: missing, malformed or badly signed.
type Decoded struct {
	Principal *domain.Principal
	Err       error
	Info      error
}

// Policy turns a decode outcome into the principal to attach, or a rejection.
type Policy func(d Decoded) (*domain.Principal, error)

// Decode extracts the bearer token from the Authorization header and
// verifies it with codec.
func Decode(codec ports.TokenCodec, header string) Decoded {
	token, ok := bearerToken(header)
	if !ok {
		return Decoded{Info: errNoToken}
	}

	tc, err := codec.Verify(token)
	switch {
	case err == nil:
		return Decoded{Principal: tc.Principal()}
	case errors.Is(err, domain.ErrMalformedToken):
		return Decoded{Info: err}
	default:
		return Decoded{Err: err}
	}
}

// Authenticate accepts any verified principal. A malformed or badly signed
// token is reported as ErrInvalidToken; every other failure, including a
// missing token, as ErrTokenRequired.
func Authenticate(d Decoded) (*domain.Principal, error) {
	if d.Err != nil || d.Principal == nil {
		if errors.Is(d.Info, domain.ErrMalformedToken) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.ErrTokenRequired
	}
	return d.Principal, nil
}

// AdminOnly accepts principals whose role is exactly admin. Decode errors
// pass through unchanged.
func AdminOnly(d Decoded) (*domain.Principal, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Principal == nil {
		return nil, domain.ErrAccessDenied
	}
	if !d.Principal.IsAdmin() {
		return nil, domain.ErrAdminOnly
	}
	return d.Principal, nil
}

// Guard runs the decode step followed by policy and stores the resulting
// principal in the echo context.
func Guard(name string, codec ports.TokenCodec, policy Policy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := Decode(codec, c.Request().Header.Get(echo.HeaderAuthorization))

			p, err := policy(d)
			if err != nil {
				reason := rejectionReason(err)
				metrics.GuardRejectionsTotal.WithLabelValues(name, reason).Inc()
				log.Debug().
					Str("guard", name).
					Str("reason", reason).
					Str("path", c.Path()).
					Msg("request rejected")
				return err
			}

			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// Auth guards routes that require any authenticated principal.
func Auth(codec ports.TokenCodec, log zerolog.Logger) echo.MiddlewareFunc {
	return Guard("authenticated", codec, Authenticate, log)
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal attached by a guard.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrTokenRequired):
		return "missing_token"
	case errors.Is(err, domain.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, domain.ErrAdminOnly):
		return "not_admin"
	default:
		return "error"
	}
}
