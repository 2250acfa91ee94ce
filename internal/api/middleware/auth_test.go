package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/infrastructure/security"
)

const testSecret = "secret"

func issue(t *testing.T, secret string, tc domain.TokenClaims) string {
	t.Helper()
	token, err := security.NewTokenCodec(secret, 0).Issue(tc)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// stubCodec returns a fixed verification outcome.
type stubCodec struct {
	claims domain.TokenClaims
	err    error
}

func (s stubCodec) Issue(domain.TokenClaims) (string, error) { return "", nil }
func (s stubCodec) Verify(string) (domain.TokenClaims, error) {
	return s.claims, s.err
}

// runGuard sends a request with the given Authorization header through mw
// and returns the error produced and the principal seen by the next handler.
func runGuard(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*domain.Principal, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Principal
	handler := mw(func(c echo.Context) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			t.Fatalf("principal not attached")
		}
		seen = p
		return c.NoContent(http.StatusOK)
	})

	return seen, handler(c)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := issue(t, testSecret, domain.TokenClaims{Subject: 7, Email: "a@x.com", Name: "A B", Role: domain.RoleUser})

	p, err := runGuard(t, Auth(security.NewTokenCodec(testSecret, 0), zerolog.Nop()), "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.Principal{ID: 7, Email: "a@x.com", Name: "A B", Role: domain.RoleUser}
	if p == nil || *p != want {
		t.Fatalf("expected principal %+v, got %+v", want, p)
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	token := issue(t, testSecret, domain.TokenClaims{Subject: 1, Role: domain.RoleUser})

	if _, err := runGuard(t, Auth(security.NewTokenCodec(testSecret, 0), zerolog.Nop()), "bearer "+token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	codec := security.NewTokenCodec(testSecret, 0)
	foreign := issue(t, "other-secret", domain.TokenClaims{Subject: 1, Role: domain.RoleAdmin})

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"missing header", "", domain.ErrTokenRequired},
		{"wrong scheme", "Token abc", domain.ErrTokenRequired},
		{"empty bearer", "Bearer ", domain.ErrTokenRequired},
		{"garbage token", "Bearer not-a-token", domain.ErrInvalidToken},
		{"bad signature", "Bearer " + foreign, domain.ErrInvalidToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runGuard(t, Auth(codec, zerolog.Nop()), tc.header)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthMiddleware_UndecodableIsTokenRequired(t *testing.T) {
	codec := stubCodec{err: domain.ErrTokenUndecodable}

	_, err := runGuard(t, Auth(codec, zerolog.Nop()), "Bearer whatever")
	if !errors.Is(err, domain.ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
}

func TestAuthMiddleware_EmptyPrincipalAccepted(t *testing.T) {
	codec := stubCodec{}

	p, err := runGuard(t, Auth(codec, zerolog.Nop()), "Bearer whatever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || *p != (domain.Principal{}) {
		t.Fatalf("expected empty principal, got %+v", p)
	}
}

func TestAuthenticate_Policy(t *testing.T) {
	malformed := errors.Join(domain.ErrMalformedToken, errors.New("signature is invalid"))
	principal := &domain.Principal{ID: 1}

	cases := []struct {
		name string
		in   Decoded
		want error
	}{
		{"principal", Decoded{Principal: principal}, nil},
		{"malformed info", Decoded{Info: malformed}, domain.ErrInvalidToken},
		{"error with malformed info", Decoded{Err: errors.New("boom"), Info: malformed}, domain.ErrInvalidToken},
		{"error with principal", Decoded{Principal: principal, Err: errors.New("boom")}, domain.ErrTokenRequired},
		{"no token", Decoded{Info: errNoToken}, domain.ErrTokenRequired},
		{"nothing", Decoded{}, domain.ErrTokenRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Authenticate(tc.in)
			if tc.want == nil {
				if err != nil || p != principal {
					t.Fatalf("expected principal, got %+v, %v", p, err)
				}
				return
			}
			if err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	codec := security.NewTokenCodec(testSecret, 0)
	token := issue(t, testSecret, domain.TokenClaims{Subject: 3, Role: domain.RoleUser})

	d := Decode(codec, "Bearer "+token)
	if d.Principal == nil || d.Principal.ID != 3 || d.Err != nil || d.Info != nil {
		t.Fatalf("unexpected decode of valid token: %+v", d)
	}

	d = Decode(codec, "")
	if d.Principal != nil || d.Err != nil || !errors.Is(d.Info, errNoToken) {
		t.Fatalf("unexpected decode of missing token: %+v", d)
	}

	d = Decode(codec, "Bearer a.b.c")
	if d.Principal != nil || !errors.Is(d.Info, domain.ErrMalformedToken) {
		t.Fatalf("unexpected decode of malformed token: %+v", d)
	}

	d = Decode(stubCodec{err: domain.ErrTokenUndecodable}, "Bearer x")
	if d.Principal != nil || !errors.Is(d.Err, domain.ErrTokenUndecodable) || d.Info != nil {
		t.Fatalf("unexpected decode of undecodable token: %+v", d)
	}
}
