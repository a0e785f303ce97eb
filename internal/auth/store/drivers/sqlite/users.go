package sqlite

import (
	"context"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/store"
)

const userColumns = `id, username, email, display_name, password_hash, role, business_id,
	reset_token_hash, reset_token_expires_at,
	two_factor_enabled, two_factor_verified, two_factor_code_hash, two_factor_code_expires_at,
	created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = ?`, tokenHash)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, display_name, password_hash, role, business_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.DisplayName, u.PasswordHash, u.Role,
		mapOptionalString(u.BusinessID), now, now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, email, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, display_name = ?, updated_at = ? WHERE id = ?`,
		email, displayName, time.Now().UTC(), userID,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID, role string) error {
	return r.execExpectingRow(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now().UTC(), userID,
	)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.execExpectingRow(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID,
	)
}

func (r *usersRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.execExpectingRow(ctx,
		`UPDATE users SET reset_token_hash = ?, reset_token_expires_at = ?, updated_at = ? WHERE id = ?`,
		tokenHash, expiresAt.UTC(), time.Now().UTC(), userID,
	)
}

// ConsumeResetToken is a conditional update: it only succeeds while the
// stored fingerprint still matches, so two concurrent submissions of the
// same token cannot both succeed.
func (r *usersRepo) ConsumeResetToken(ctx context.Context, userID, tokenHash, newPasswordHash string) error {
	return r.execExpectingRow(ctx,
		`UPDATE users
		 SET password_hash = ?, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = ?
		 WHERE id = ? AND reset_token_hash = ?`,
		newPasswordHash, time.Now().UTC(), userID, tokenHash,
	)
}

func (r *usersRepo) SetTwoFactorCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error {
	return r.execExpectingRow(ctx,
		`UPDATE users
		 SET two_factor_enabled = 1, two_factor_code_hash = ?, two_factor_code_expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		codeHash, expiresAt.UTC(), time.Now().UTC(), userID,
	)
}

// ConfirmTwoFactor is a conditional update: at most one concurrent verify of
// the same code can succeed.
func (r *usersRepo) ConfirmTwoFactor(ctx context.Context, userID, codeHash string) error {
	return r.execExpectingRow(ctx,
		`UPDATE users
		 SET two_factor_verified = 1, two_factor_code_hash = NULL, two_factor_code_expires_at = NULL, updated_at = ?
		 WHERE id = ? AND two_factor_code_hash = ?`,
		time.Now().UTC(), userID, codeHash,
	)
}

func (r *usersRepo) ClearTwoFactorCode(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET two_factor_enabled = two_factor_verified, two_factor_code_hash = NULL, two_factor_code_expires_at = NULL, updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET two_factor_enabled = 0, two_factor_verified = 0, two_factor_code_hash = NULL, two_factor_code_expires_at = NULL, updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) ListUsersByBusiness(ctx context.Context, businessID string) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE business_id = ? ORDER BY created_at DESC`,
		businessID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return r.execExpectingRow(ctx, `DELETE FROM users WHERE id = ?`, userID)
}

// execExpectingRow runs a statement that must affect exactly one row,
// mapping "no rows touched" to store.ErrNotFound.
func (r *usersRepo) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
