package ports

import (
	"context"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// UserRepository defines the persistence operations of the user store.
// Every returned user carries its resolved role.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has that email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when the id is unknown.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Create inserts user with user.Role.ID as its role. A unique violation on
	// email, including one raised by a concurrent registration, is reported
	// as domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update applies patch and returns the stored result.
	Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	// FindOrCreateRole is idempotent: a role created concurrently by another
	// caller is returned as if it had been found.
	FindOrCreateRole(ctx context.Context, name string) (*domain.Role, error)
	Ping(ctx context.Context) error
}
