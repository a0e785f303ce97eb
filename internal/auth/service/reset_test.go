package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/email"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "old-password", nil)

	recorder := email.NewRecorder()
	resetSvc := &PasswordResetService{Store: st, Sender: recorder}
	authSvc := &AuthService{Store: st}

	token, err := resetSvc.Request(ctx, user.Email)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, token, recorder.LastResetToken(user.Email))

	// Only the fingerprint is persisted.
	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
	require.Equal(t, cryptox.FingerprintToken(token), *stored.ResetTokenHash)
	require.NotNil(t, stored.ResetTokenExpires)

	require.NoError(t, resetSvc.Consume(ctx, token, "new-password"))

	_, err = authSvc.Login(ctx, "alice", "old-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, "alice", "new-password")
	require.NoError(t, err)

	t.Run("token is single use", func(t *testing.T) {
		err := resetSvc.Consume(ctx, token, "another-password")
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

		_, err = authSvc.Login(ctx, "alice", "new-password")
		require.NoError(t, err)
	})
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	recorder := email.NewRecorder()
	svc := &PasswordResetService{Store: st, Sender: recorder}

	token, err := svc.Request(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, token)
	require.Empty(t, recorder.LastResetToken("nobody@example.com"))
}

func TestPasswordResetExpiredTokenRejected(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "old-password", nil)

	svc := &PasswordResetService{Store: st, Sender: email.NewRecorder()}

	token, err := cryptox.GenerateHexToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, st.Users().SetResetToken(ctx, user.ID,
		cryptox.FingerprintToken(token), time.Now().UTC().Add(-time.Minute)))

	require.ErrorIs(t, svc.Consume(ctx, token, "new-password"), ErrInvalidOrExpiredToken)
}

func TestPasswordResetTokenSurvivesDispatchFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "old-password", nil)

	recorder := email.NewRecorder()
	recorder.FailSends = true
	svc := &PasswordResetService{Store: st, Sender: recorder}

	token, err := svc.Request(ctx, user.Email)
	require.ErrorIs(t, err, ErrEmailDispatch)
	require.NotEmpty(t, token)

	// The token was persisted before dispatch and stays redeemable.
	require.NoError(t, svc.Consume(ctx, token, "new-password"))
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "old-password", nil)

	recorder := email.NewRecorder()
	resetSvc := &PasswordResetService{Store: st, Sender: recorder}
	sessionSvc := &SessionService{Store: st}

	cookieToken, _, err := sessionSvc.Establish(ctx, user.ID)
	require.NoError(t, err)

	token, err := resetSvc.Request(ctx, user.Email)
	require.NoError(t, err)
	require.NoError(t, resetSvc.Consume(ctx, token, "new-password"))

	_, err = sessionSvc.Resolve(ctx, cookieToken)
	require.ErrorIs(t, err, ErrNoSession)
}
