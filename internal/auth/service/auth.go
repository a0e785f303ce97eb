package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/idx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// AuthService verifies local credentials and registers new identities.
type AuthService struct {
	Store store.Store
}

// RegisterParams are the validated inputs for a new identity.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Register creates a new user with a hashed password and default role.
// Returns ErrDuplicateIdentity when the username or email is taken.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (domain.User, error) {
	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     p.Username,
		Email:        p.Email,
		DisplayName:  p.DisplayName,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateIdentity
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// Login verifies a username/password pair. Unknown usernames and wrong
// passwords both come back as ErrInvalidCredentials; the distinction is
// logged server-side only.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("login failed: unknown username", "username", username)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Info("login failed: password mismatch", "user_id", user.ID)
		return domain.User{}, ErrInvalidCredentials
	}

	log.Info("login succeeded", "user_id", user.ID)
	return user, nil
}
