package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

const userDeletedMessage = "User deleted successfully"

// UserService implements account self-service and admin operations.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log}
}

// Get returns the profile of targetID to its owner or to an admin.
func (s *UserService) Get(ctx context.Context, targetID int64, caller *domain.Principal) (*domain.Profile, error) {
	user, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !caller.CanActOn(targetID) {
		return nil, domain.ErrViewForbidden
	}
	profile := user.Profile()
	return &profile, nil
}

// Update is self-only: admins go through the same ownership rule as anyone
// else here, the route guard decides who may call it at all.
func (s *UserService) Update(ctx context.Context, targetID int64, in ports.UpdateUserInput, callerID int64) (*domain.Profile, error) {
	user, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetID != callerID {
		return nil, domain.ErrUpdateForbidden
	}

	patch, err := s.buildPatch(user, in)
	if err != nil {
		return nil, err
	}

	updated := user
	if !patch.IsEmpty() {
		updated, err = s.repo.Update(ctx, targetID, patch)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, &domain.NotFoundError{ID: targetID}
			}
			if errors.Is(err, domain.ErrEmailTaken) {
				return nil, domain.ErrEmailTaken
			}
			return nil, fmt.Errorf("update user %d: %w", targetID, err)
		}
	}

	s.log.Info().Int64("user_id", targetID).Msg("user updated")
	profile := updated.Profile()
	return &profile, nil
}

// Remove deletes targetID when the caller owns it or is an admin.
func (s *UserService) Remove(ctx context.Context, targetID, callerID int64, isAdmin bool) (string, error) {
	if _, err := s.load(ctx, targetID); err != nil {
		return "", err
	}
	if targetID != callerID && !isAdmin {
		return "", domain.ErrDeleteForbidden
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", &domain.NotFoundError{ID: targetID}
		}
		return "", fmt.Errorf("delete user %d: %w", targetID, err)
	}

	s.log.Info().Int64("user_id", targetID).Int64("caller_id", callerID).Bool("admin", isAdmin).Msg("user deleted")
	return userDeletedMessage, nil
}

func (s *UserService) load(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, &domain.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}

// buildPatch copies the provided fields, hashes a new password and
// recomputes the display name from the merged first and last name.
func (s *UserService) buildPatch(current *domain.User, in ports.UpdateUserInput) (domain.UserPatch, error) {
	patch := domain.UserPatch{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return domain.UserPatch{}, fmt.Errorf("update user %d: %w", current.ID, err)
		}
		patch.PasswordHash = &hash
	}

	if in.FirstName != nil || in.LastName != nil {
		firstName, lastName := current.FirstName, current.LastName
		if in.FirstName != nil {
			firstName = *in.FirstName
		}
		if in.LastName != nil {
			lastName = *in.LastName
		}
		name := domain.DisplayName(firstName, lastName)
		patch.DisplayName = &name
	}

	return patch, nil
}
