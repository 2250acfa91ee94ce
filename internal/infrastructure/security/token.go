package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// claims is the JWT body: {sub, email, name, role} plus iat, and exp when a
// TTL is configured. sub stays numeric on the wire.
type claims struct {
	Subject   int64            `json:"sub"`
	Email     string           `json:"email,omitempty"`
	Name      string           `json:"name,omitempty"`
	Role      string           `json:"role,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
}

func (c *claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c *claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c *claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *claims) GetIssuer() (string, error)                   { return "", nil }
func (c *claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
func (c *claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Subject, 10), nil
}

// JWTCodec implements ports.TokenCodec with HS256 and a shared secret.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec keyed by secret. A ttl of zero issues tokens
// without an exp claim.
func NewTokenCodec(secret string, ttl time.Duration) *JWTCodec {
	return &JWTCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *JWTCodec) Issue(tc domain.TokenClaims) (string, error) {
	now := c.now()
	body := &claims{
		Subject:  tc.Subject,
		Email:    tc.Email,
		Name:     tc.Name,
		Role:     tc.Role,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if c.ttl > 0 {
		body.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Verify(token string) (domain.TokenClaims, error) {
	body := &claims{}
	parsed, err := jwt.ParseWithClaims(token, body, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return domain.TokenClaims{}, classify(err)
	}
	if !parsed.Valid {
		return domain.TokenClaims{}, domain.ErrTokenUndecodable
	}

	return domain.TokenClaims{
		Subject: body.Subject,
		Email:   body.Email,
		Name:    body.Name,
		Role:    body.Role,
	}, nil
}

// classify sorts jwt errors into the two decode failure classes.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %w", domain.ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenUndecodable, err)
	}
}
