package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a transaction entry point for the multi-step operations that
// must be atomic: reset-token consumption and two-factor verification.
type Store interface {
	Users() Users
	Sessions() Sessions
	BackupCodes() BackupCodes
	LoginChallenges() LoginChallenges

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used by the password-reset request flow.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByResetTokenHash returns the user whose reset-token fingerprint
	// matches, regardless of expiry; expiry is the caller's check.
	GetUserByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists on a username or email collision.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile mutates email and display_name and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, email, displayName string) error

	// UpdateRole sets the role and bumps updated_at.
	UpdateRole(ctx context.Context, userID, role string) error

	// UpdatePasswordHash sets the password_hash (argon2id) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// SetResetToken stores a reset-token fingerprint and expiry, replacing
	// any reset already in flight.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ConsumeResetToken atomically clears the reset state and installs the
	// new password hash, but only if the stored fingerprint still matches.
	// Returns ErrNotFound when another request consumed the token first.
	ConsumeResetToken(ctx context.Context, userID, tokenHash, newPasswordHash string) error

	// SetTwoFactorCode stores a pending verification code fingerprint and
	// expiry and marks two-factor as enabled.
	SetTwoFactorCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error

	// ConfirmTwoFactor atomically marks two-factor verified and clears the
	// temp code, but only if the stored fingerprint still matches. Returns
	// ErrNotFound when the code was already consumed or replaced.
	ConfirmTwoFactor(ctx context.Context, userID, codeHash string) error

	// ClearTwoFactorCode drops a pending code without verifying (expiry,
	// enable rollback).
	ClearTwoFactorCode(ctx context.Context, userID string) error

	// DisableTwoFactor clears enabled, verified and any pending code state.
	DisableTwoFactor(ctx context.Context, userID string) error

	// ListUsersByBusiness returns the users of one tenant, newest first.
	ListUsersByBusiness(ctx context.Context, businessID string) ([]domain.User, error)

	// DeleteUser removes a user; sessions and backup codes cascade per schema.
	DeleteUser(ctx context.Context, userID string) error
}

type Sessions interface {
	// CreateSession stores a new session record.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns the session by its token fingerprint.
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// DeleteSessionByTokenHash removes one session (logout, lazy expiry).
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteUserSessions removes every session belonging to a user.
	DeleteUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}

type BackupCodes interface {
	// CreateBackupCode stores a backup code fingerprint for a user.
	CreateBackupCode(ctx context.Context, userID, codeHash string) error

	// RedeemBackupCode deletes a matching code and reports whether one
	// existed. Delete-on-read keeps redemption single-use under concurrency.
	RedeemBackupCode(ctx context.Context, userID, codeHash string) (bool, error)

	// DeleteAllBackupCodes removes all backup codes for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountUserBackupCodes returns the number of unused codes for a user.
	CountUserBackupCodes(ctx context.Context, userID string) (int, error)
}

type LoginChallenges interface {
	// CreateLoginChallenge stores a pending second-factor login challenge.
	CreateLoginChallenge(ctx context.Context, c domain.LoginChallenge) error

	// GetLoginChallenge retrieves a challenge by its token (the ULID).
	GetLoginChallenge(ctx context.Context, id string) (domain.LoginChallenge, error)

	// IncrementLoginChallengeAttempts bumps the failed-attempt counter and
	// returns the updated challenge.
	IncrementLoginChallengeAttempts(ctx context.Context, id string) (domain.LoginChallenge, error)

	// DeleteLoginChallenge removes a challenge (completion or voiding).
	DeleteLoginChallenge(ctx context.Context, id string) error

	// DeleteExpiredLoginChallenges is housekeeping.
	DeleteExpiredLoginChallenges(ctx context.Context) error
}
