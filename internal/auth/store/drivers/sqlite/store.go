package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	_ "modernc.org/sqlite"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repos need, so the same repo
// code serves both the root store and transactions.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs so session and backup-code rows die with their user.
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling
// commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	wrapped := newTx(tx)

	// Rollback is safe to call after commit; this covers early returns.
	defer func() {
		_ = wrapped.Rollback()
	}()

	if err := fn(wrapped); err != nil {
		return err
	}

	return wrapped.Commit()
}

func (s *Store) Users() store.Users                     { return &usersRepo{db: s.db} }
func (s *Store) Sessions() store.Sessions               { return &sessionsRepo{db: s.db} }
func (s *Store) BackupCodes() store.BackupCodes         { return &backupCodesRepo{db: s.db} }
func (s *Store) LoginChallenges() store.LoginChallenges { return &loginChallengesRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u              domain.User
		businessID     sql.NullString
		resetHash      sql.NullString
		resetExpires   sql.NullTime
		tfaEnabled     int
		tfaVerified    int
		tfaCodeHash    sql.NullString
		tfaCodeExpires sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.Role,
		&businessID,
		&resetHash,
		&resetExpires,
		&tfaEnabled,
		&tfaVerified,
		&tfaCodeHash,
		&tfaCodeExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.BusinessID = mapNullStringPtr(businessID)
	u.ResetTokenHash = mapNullStringPtr(resetHash)
	u.ResetTokenExpires = mapNullTimePtr(resetExpires)
	u.TwoFactorEnabled = tfaEnabled != 0
	u.TwoFactorVerified = tfaVerified != 0
	u.TwoFactorCodeHash = mapNullStringPtr(tfaCodeHash)
	u.TwoFactorCodeExpires = mapNullTimePtr(tfaCodeExpires)
	return u, nil
}
