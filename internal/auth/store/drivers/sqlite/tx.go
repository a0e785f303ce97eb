package sqlite

import (
	"context"
	"database/sql"

	"github.com/agentdesk/agentdesk/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the caller commits or rolls back and the outer DB stays open.
func (t *txStore) Close() error { return nil }

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

// WithTx inside a transaction is not supported (no SAVEPOINT emulation).
func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                     { return &usersRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions               { return &sessionsRepo{db: t.tx} }
func (t *txStore) BackupCodes() store.BackupCodes         { return &backupCodesRepo{db: t.tx} }
func (t *txStore) LoginChallenges() store.LoginChallenges { return &loginChallengesRepo{db: t.tx} }

// ApplyMigrations is a no-op; migrations run before transactions start.
func (t *txStore) ApplyMigrations() error { return nil }
