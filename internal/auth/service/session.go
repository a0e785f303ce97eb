package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/idx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// DefaultSessionTTL is the absolute session lifetime.
const DefaultSessionTTL = 24 * time.Hour

// ErrNoSession reports that a presented token maps to no live session.
var ErrNoSession = errors.New("no valid session")

// SessionService owns the server side of the session lifecycle. Tokens are
// opaque; only their fingerprints touch storage.
type SessionService struct {
	Store store.Store
	TTL   time.Duration
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

// Establish creates a session for the user and returns the opaque token the
// cookie should carry, along with its expiry.
func (s *SessionService) Establish(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.ttl())
	session := domain.Session{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(token),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to persist session: %w", err)
	}

	slogx.FromContext(ctx).Info("session established", "user_id", userID, "session_id", session.ID)
	return token, expiresAt, nil
}

// Resolve maps a cookie token to a fresh user record. The user is reloaded
// from the credential store on every call so role and tenant changes take
// effect immediately, and rehydration fails closed when the user row is
// gone or the session expired.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.User, error) {
	log := slogx.FromContext(ctx)
	hash := cryptox.FingerprintToken(token)

	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNoSession
		}
		return domain.User{}, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Expired(time.Now().UTC()) {
		// Lazy expiry; housekeeping sweeps the rest.
		_ = s.Store.Sessions().DeleteSessionByTokenHash(ctx, hash)
		log.Info("session rehydration failed: expired", "session_id", session.ID)
		return domain.User{}, ErrNoSession
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The identity no longer exists; drop the orphaned session.
			_ = s.Store.Sessions().DeleteSessionByTokenHash(ctx, hash)
			log.Warn("session rehydration failed: user gone", "session_id", session.ID)
			return domain.User{}, ErrNoSession
		}
		return domain.User{}, fmt.Errorf("failed to load session user: %w", err)
	}

	return user, nil
}

// Destroy removes the session for a token. Destroying a token with no
// session is not an error; logout always succeeds.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.Store.Sessions().DeleteSessionByTokenHash(ctx, cryptox.FingerprintToken(token)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	slogx.FromContext(ctx).Info("session destroyed")
	return nil
}
