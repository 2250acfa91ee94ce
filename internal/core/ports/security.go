package ports

import "github.com/eparriel/pfe-backend/internal/core/domain"

// PasswordHasher hashes and verifies credentials with an adaptive one-way hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. A mismatch is not an error.
	Verify(plaintext, hash string) bool
}

// TokenCodec signs claims into bearer tokens and verifies them.
type TokenCodec interface {
	Issue(claims domain.TokenClaims) (string, error)
	// Verify returns an error matching domain.ErrMalformedToken for parse and
	// signature failures, and domain.ErrTokenUndecodable for anything else.
	Verify(token string) (domain.TokenClaims, error)
}
