package ports

import (
	"context"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by both registration and login.
type AuthResult struct {
	AccessToken string            `json:"access_token"`
	User        domain.PublicUser `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}
