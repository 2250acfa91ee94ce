package ports

import (
	"context"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// UpdateUserInput is a partial profile update. Nil fields are not changed.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// UserService defines the account management use cases.
type UserService interface {
	Get(ctx context.Context, targetID int64, caller *domain.Principal) (*domain.Profile, error)
	Update(ctx context.Context, targetID int64, input UpdateUserInput, callerID int64) (*domain.Profile, error)
	// Remove deletes the target account and returns a confirmation message.
	Remove(ctx context.Context, targetID, callerID int64, isAdmin bool) (string, error)
}
