package sqlite

import (
	"context"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
)

type loginChallengesRepo struct {
	db dbtx
}

func (r *loginChallengesRepo) CreateLoginChallenge(ctx context.Context, c domain.LoginChallenge) error {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_challenges (id, user_id, code_hash, attempts, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.CodeHash, c.Attempts, c.ExpiresAt.UTC(), created,
	)
	return mapConstraint(err)
}

func (r *loginChallengesRepo) GetLoginChallenge(ctx context.Context, id string) (domain.LoginChallenge, error) {
	var c domain.LoginChallenge
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, code_hash, attempts, expires_at, created_at
		 FROM login_challenges WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.LoginChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *loginChallengesRepo) IncrementLoginChallengeAttempts(ctx context.Context, id string) (domain.LoginChallenge, error) {
	var c domain.LoginChallenge
	err := r.db.QueryRowContext(ctx,
		`UPDATE login_challenges SET attempts = attempts + 1 WHERE id = ?
		 RETURNING id, user_id, code_hash, attempts, expires_at, created_at`, id,
	).Scan(&c.ID, &c.UserID, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.LoginChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *loginChallengesRepo) DeleteLoginChallenge(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_challenges WHERE id = ?`, id)
	return err
}

func (r *loginChallengesRepo) DeleteExpiredLoginChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_challenges WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
