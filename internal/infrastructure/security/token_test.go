package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

func TestJWTCodec_IssueVerifyRoundTrip(t *testing.T) {
	codec := NewTokenCodec("secret", 0)
	in := domain.TokenClaims{Subject: 1, Email: "a@x.com", Name: "A B", Role: "user"}

	token, err := codec.Issue(in)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	out, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestJWTCodec_WireClaims(t *testing.T) {
	codec := NewTokenCodec("secret", 0)
	token, err := codec.Issue(domain.TokenClaims{Subject: 7, Email: "a@x.com", Name: "A B", Role: "admin"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("invalid payload json: %v", err)
	}

	if payload["sub"] != float64(7) {
		t.Fatalf("expected numeric sub 7, got %v", payload["sub"])
	}
	if payload["email"] != "a@x.com" || payload["name"] != "A B" || payload["role"] != "admin" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if _, ok := payload["exp"]; ok {
		t.Fatalf("expected no exp claim without a TTL")
	}
}

func TestJWTCodec_TTLAddsExpiry(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issuedAt }

	token, err := codec.Issue(domain.TokenClaims{Subject: 1})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("expected fresh token to verify, got %v", err)
	}

	codec.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = codec.Verify(token)
	if !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected expired token to be classified malformed, got %v", err)
	}
}

func TestJWTCodec_Verify_Classification(t *testing.T) {
	codec := NewTokenCodec("secret", 0)

	foreign, err := NewTokenCodec("other-secret", 0).Issue(domain.TokenClaims{Subject: 1})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": 1}).
		SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs512 token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"alg none", none},
		{"unexpected algorithm", hs512},
		{"tampered payload", tamper(t, foreign)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Verify(tc.token)
			if !errors.Is(err, domain.ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestJWTCodec_MissingClaimsDecodeEmpty(t *testing.T) {
	codec := NewTokenCodec("secret", 0)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 1, "email": "test@example.com"}).
		SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	out, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Subject != 1 || out.Email != "test@example.com" || out.Name != "" || out.Role != "" {
		t.Fatalf("unexpected claims: %+v", out)
	}
}

func tamper(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"sub":1,"role":"admin"}`))
	return strings.Join(parts, ".")
}
