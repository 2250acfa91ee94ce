package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	codec  ports.TokenCodec
	log    zerolog.Logger

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, codec ports.TokenCodec, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, codec: codec, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	role, err := s.repo.FindOrCreateRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("register: ensure role: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DisplayName:  domain.DisplayName(in.FirstName, in.LastName),
		Role:         *role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	result, err := s.issue(created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", role.Name).Msg("user registered")
	return result, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.decoy())
			s.log.Debug().Msg("login rejected: unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup email: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Debug().Int64("user_id", user.ID).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return result, nil
}

func (s *AuthService) issue(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.codec.Issue(domain.ClaimsFor(user))
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{AccessToken: token, User: user.Public()}, nil
}

// decoy returns a real hash to verify against when the email is unknown, so
// both login failures cost one hash comparison.
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to build decoy hash")
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}
