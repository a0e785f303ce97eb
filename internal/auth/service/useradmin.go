package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// UserAdminService covers profile updates plus the admin-only user
// management operations. Every operation is scoped to the caller's
// business: admins never see or touch accounts outside their own tenant.
type UserAdminService struct {
	Store store.Store
}

// UpdateProfileParams carries the self-service profile fields. Nil means
// leave unchanged.
type UpdateProfileParams struct {
	DisplayName *string
	Email       *string
}

// UpdateProfile applies a partial update to the caller's own account.
func (s *UserAdminService) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if params.DisplayName != nil {
		user.DisplayName = *params.DisplayName
	}
	if params.Email != nil {
		user.Email = *params.Email
	}

	if err := s.Store.Users().UpdateProfile(ctx, user.ID, user.Email, user.DisplayName); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateIdentity
		}
		return domain.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	slogx.FromContext(ctx).Info("profile updated", "user_id", user.ID)
	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// ListBusinessUsers returns every account in the caller's business.
func (s *UserAdminService) ListBusinessUsers(ctx context.Context, caller domain.User) ([]domain.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if caller.BusinessID == nil {
		return []domain.User{caller}, nil
	}
	return s.Store.Users().ListUsersByBusiness(ctx, *caller.BusinessID)
}

// ChangeRole sets another account's role. The target must belong to the
// caller's business.
func (s *UserAdminService) ChangeRole(ctx context.Context, caller domain.User, targetID, role string) (domain.User, error) {
	if !caller.IsAdmin() {
		return domain.User{}, ErrForbidden
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrForbidden, role)
	}

	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load target user: %w", err)
	}
	if !sameBusiness(caller, target) {
		return domain.User{}, ErrForbidden
	}

	if err := s.Store.Users().UpdateRole(ctx, target.ID, role); err != nil {
		return domain.User{}, fmt.Errorf("failed to set role: %w", err)
	}

	slogx.FromContext(ctx).Info("role changed",
		"actor_id", caller.ID,
		"user_id", target.ID,
		"role", role,
	)
	return s.Store.Users().GetUserByID(ctx, target.ID)
}

// DeleteUser removes an account from the caller's business. Admins cannot
// delete themselves; sessions and backup codes go with the row via the
// store's cascades.
func (s *UserAdminService) DeleteUser(ctx context.Context, caller domain.User, targetID string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if caller.ID == targetID {
		return ErrForbidden
	}

	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to load target user: %w", err)
	}
	if !sameBusiness(caller, target) {
		return ErrForbidden
	}

	if err := s.Store.Users().DeleteUser(ctx, target.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slogx.FromContext(ctx).Info("user deleted", "actor_id", caller.ID, "user_id", target.ID)
	return nil
}

func sameBusiness(a, b domain.User) bool {
	if a.BusinessID == nil || b.BusinessID == nil {
		return false
	}
	return *a.BusinessID == *b.BusinessID
}
