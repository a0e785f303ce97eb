package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/email"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/idx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

const (
	verificationCodeDigits = 6
	verificationCodeTTL    = 10 * time.Minute
	backupCodeCount        = 10
	loginChallengeTTL      = 5 * time.Minute
)

// TwoFactorService drives the email-code second factor: the
// enable/verify/disable lifecycle and the login challenge for verified users.
type TwoFactorService struct {
	Store  store.Store
	Sender email.Sender
}

// Enable starts two-factor enrollment for a user: generates a 6-digit code,
// persists its fingerprint with a 10-minute expiry, and emails it. Enable is
// atomic with dispatch: when the email fails, the pending code and the
// enabled flag are rolled back and ErrEmailDispatch is returned, so the user
// is never left flagged enabled with an undeliverable code.
func (s *TwoFactorService) Enable(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	code, err := cryptox.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(verificationCodeTTL)
	if err := s.Store.Users().SetTwoFactorCode(ctx, userID, cryptox.FingerprintToken(code), expiresAt); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.Sender.SendVerificationCode(ctx, user.Email, code); err != nil {
		log.Error("verification code dispatch failed", "user_id", userID, "err", err)
		if rbErr := s.Store.Users().ClearTwoFactorCode(ctx, userID); rbErr != nil {
			log.Error("failed to roll back pending verification code", "user_id", userID, "err", rbErr)
		}
		return ErrEmailDispatch
	}

	log.Info("two-factor enable requested", "user_id", userID)
	return nil
}

// Verify confirms the emailed code and completes enrollment. On success the
// temp code is cleared, the user is marked verified, and exactly ten backup
// codes are generated; their plaintext is returned once and only their
// fingerprints are stored. The confirm-plus-insert runs in one transaction
// with a conditional update so at most one concurrent verify succeeds.
func (s *TwoFactorService) Verify(ctx context.Context, userID, code string) ([]string, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.TwoFactorCodeHash == nil || user.TwoFactorCodeExpires == nil {
		return nil, ErrNoVerificationInProgress
	}

	if time.Now().UTC().After(*user.TwoFactorCodeExpires) {
		// Expired codes are cleared so the state machine returns to the
		// start of the enable cycle.
		if err := s.Store.Users().ClearTwoFactorCode(ctx, userID); err != nil {
			log.Error("failed to clear expired verification code", "user_id", userID, "err", err)
		}
		return nil, ErrCodeExpired
	}

	if cryptox.FingerprintToken(code) != *user.TwoFactorCodeHash {
		log.Info("two-factor verify failed: code mismatch", "user_id", userID)
		return nil, ErrInvalidCode
	}

	backupCodes := make([]string, backupCodeCount)
	for i := range backupCodes {
		c, err := cryptox.GenerateBackupCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		backupCodes[i] = c
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().ConfirmTwoFactor(ctx, userID, *user.TwoFactorCodeHash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Another request consumed or replaced the code first.
				return ErrNoVerificationInProgress
			}
			return fmt.Errorf("failed to confirm two-factor: %w", err)
		}

		// A fresh enable cycle starts from a clean slate.
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear stale backup codes: %w", err)
		}

		for _, c := range backupCodes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(c)); err != nil {
				return fmt.Errorf("failed to store backup code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("two-factor verified", "user_id", userID)
	return backupCodes, nil
}

// Disable unconditionally clears all two-factor state for a user, including
// backup codes. Idempotent.
func (s *TwoFactorService) Disable(ctx context.Context, userID string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		if err := tx.Users().DisableTwoFactor(ctx, userID); err != nil {
			return fmt.Errorf("failed to disable two-factor: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("two-factor disabled", "user_id", userID)
	return nil
}

// StartLoginChallenge gates session establishment for a two-factor-verified
// user: a fresh code is emailed and a short-lived challenge token returned.
func (s *TwoFactorService) StartLoginChallenge(ctx context.Context, user domain.User) (domain.ChallengeResponse, error) {
	log := slogx.FromContext(ctx)

	code, err := cryptox.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return domain.ChallengeResponse{}, fmt.Errorf("failed to generate challenge code: %w", err)
	}

	challenge := domain.LoginChallenge{
		ID:        idx.New().String(),
		UserID:    user.ID,
		CodeHash:  cryptox.FingerprintToken(code),
		ExpiresAt: time.Now().UTC().Add(loginChallengeTTL),
	}

	if err := s.Store.LoginChallenges().CreateLoginChallenge(ctx, challenge); err != nil {
		return domain.ChallengeResponse{}, fmt.Errorf("failed to persist login challenge: %w", err)
	}

	if err := s.Sender.SendVerificationCode(ctx, user.Email, code); err != nil {
		log.Error("challenge code dispatch failed", "user_id", user.ID, "err", err)
		_ = s.Store.LoginChallenges().DeleteLoginChallenge(ctx, challenge.ID)
		return domain.ChallengeResponse{}, ErrEmailDispatch
	}

	log.Info("login challenge issued", "user_id", user.ID, "challenge_id", challenge.ID)
	return domain.ChallengeResponse{
		MFARequired: true,
		MFAToken:    challenge.ID,
		Methods:     []string{domain.ChallengeMethodEmail, domain.ChallengeMethodBackupCode},
	}, nil
}

// CompleteLoginChallenge redeems a challenge with either the emailed code or
// an unused backup code and returns the user a session may be established
// for. Backup codes are deleted on redemption (single use). Five failed
// attempts void the challenge.
func (s *TwoFactorService) CompleteLoginChallenge(ctx context.Context, challengeID, code, backupCode string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	challenge, err := s.Store.LoginChallenges().GetLoginChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrChallengeInvalid
		}
		return domain.User{}, fmt.Errorf("failed to load login challenge: %w", err)
	}

	if time.Now().UTC().After(challenge.ExpiresAt) || challenge.Attempts >= domain.MaxChallengeAttempts {
		_ = s.Store.LoginChallenges().DeleteLoginChallenge(ctx, challenge.ID)
		return domain.User{}, ErrChallengeInvalid
	}

	var matched bool
	switch {
	case code != "":
		matched = cryptox.FingerprintToken(code) == challenge.CodeHash
	case backupCode != "":
		matched, err = s.Store.BackupCodes().RedeemBackupCode(ctx, challenge.UserID, cryptox.FingerprintToken(backupCode))
		if err != nil {
			return domain.User{}, fmt.Errorf("failed to redeem backup code: %w", err)
		}
	}

	if !matched {
		updated, err := s.Store.LoginChallenges().IncrementLoginChallengeAttempts(ctx, challenge.ID)
		if err == nil && updated.Attempts >= domain.MaxChallengeAttempts {
			_ = s.Store.LoginChallenges().DeleteLoginChallenge(ctx, challenge.ID)
		}
		log.Info("login challenge attempt failed", "challenge_id", challenge.ID)
		return domain.User{}, ErrInvalidCode
	}

	if err := s.Store.LoginChallenges().DeleteLoginChallenge(ctx, challenge.ID); err != nil {
		return domain.User{}, fmt.Errorf("failed to consume login challenge: %w", err)
	}

	user, err := s.Store.Users().GetUserByID(ctx, challenge.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load challenge user: %w", err)
	}

	log.Info("login challenge completed", "user_id", user.ID)
	return user, nil
}
