package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/email"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

const resetTokenTTL = 1 * time.Hour

// PasswordResetService owns the forgot/reset token flow.
type PasswordResetService struct {
	Store  store.Store
	Sender email.Sender
}

// Request starts a reset for the account behind an email address. When the
// address is unknown it returns ("", nil): callers respond identically in
// both cases so the endpoint leaks no account existence signal. When the
// account exists, a hex token is persisted (fingerprinted) with a one-hour
// expiry and mailed; the token stays valid even if dispatch fails — it
// simply expires unused — and the dispatch failure is reported as
// ErrEmailDispatch alongside the token for non-production diagnostics.
func (s *PasswordResetService) Request(ctx context.Context, emailAddr string) (string, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", fmt.Errorf("failed to look up email: %w", err)
	}

	token, err := cryptox.GenerateHexToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(resetTokenTTL)
	if err := s.Store.Users().SetResetToken(ctx, user.ID, cryptox.FingerprintToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.Sender.SendPasswordReset(ctx, user.Email, token); err != nil {
		log.Error("reset email dispatch failed", "user_id", user.ID, "err", err)
		return token, ErrEmailDispatch
	}

	log.Info("password reset requested", "user_id", user.ID)
	return token, nil
}

// Consume redeems a reset token: verifies it maps to a user and is
// unexpired, installs the new password hash, and clears the token — all in
// one conditional update, so a token is usable exactly once even under
// concurrent submission.
func (s *PasswordResetService) Consume(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)
	tokenHash := cryptox.FingerprintToken(token)

	user, err := s.Store.Users().GetUserByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if user.ResetTokenExpires == nil || time.Now().UTC().After(*user.ResetTokenExpires) {
		return ErrInvalidOrExpiredToken
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.Store.Users().ConsumeResetToken(ctx, user.ID, tokenHash, newHash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A concurrent request consumed the token between lookup and update.
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	// A reset proves control of the account; any sessions minted before it
	// are revoked.
	if err := s.Store.Sessions().DeleteUserSessions(ctx, user.ID); err != nil {
		log.Error("failed to revoke sessions after reset", "user_id", user.ID, "err", err)
	}

	log.Info("password reset completed", "user_id", user.ID)
	return nil
}
