package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestSessionEstablishAndResolve(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "pw", nil)

	svc := &SessionService{Store: st}

	token, expiresAt, err := svc.Establish(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().UTC().Add(DefaultSessionTTL), expiresAt, time.Minute)

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)

	// The raw token must never be stored; only its fingerprint is.
	_, err = st.Sessions().GetSessionByTokenHash(ctx, cryptox.FingerprintToken(token))
	require.NoError(t, err)
}

func TestSessionResolvePicksUpRoleChanges(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "pw", nil)

	svc := &SessionService{Store: st}
	token, _, err := svc.Establish(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, st.Users().UpdateRole(ctx, user.ID, domain.RoleAdmin))

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, resolved.Role)
}

func TestSessionResolveFailsClosed(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &SessionService{Store: st}

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "no-such-token")
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired session is rejected and deleted", func(t *testing.T) {
		user := seedUser(t, st, "bob", "bob@example.com", "pw", nil)

		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		hash := cryptox.FingerprintToken(token)
		require.NoError(t, st.Sessions().CreateSession(ctx, domain.Session{
			ID:        idx.New().String(),
			TokenHash: hash,
			UserID:    user.ID,
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}))

		_, err = svc.Resolve(ctx, token)
		require.ErrorIs(t, err, ErrNoSession)

		_, err = st.Sessions().GetSessionByTokenHash(ctx, hash)
		require.Error(t, err)
	})

	t.Run("deleted user orphans the session", func(t *testing.T) {
		user := seedUser(t, st, "carol", "carol@example.com", "pw", nil)
		token, _, err := svc.Establish(ctx, user.ID)
		require.NoError(t, err)

		require.NoError(t, st.Users().DeleteUser(ctx, user.ID))

		_, err = svc.Resolve(ctx, token)
		require.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSessionDestroy(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "pw", nil)

	svc := &SessionService{Store: st}
	token, _, err := svc.Establish(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, token))

	_, err = svc.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrNoSession)

	t.Run("destroy is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Destroy(ctx, token))
		require.NoError(t, svc.Destroy(ctx, ""))
	})
}
