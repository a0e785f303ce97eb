package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentdesk/agentdesk/pkg/authclient"
)

// enrollTwoFactor enables and verifies email 2FA for an authenticated
// client, returning the backup codes.
func enrollTwoFactor(t *testing.T, env *testEnv, client *authclient.Client, emailAddr string) []string {
	t.Helper()

	require.NoError(t, client.EnableTwoFactor(t.Context()))

	code := env.Recorder.LastCode(emailAddr)
	require.Len(t, code, 6)

	backupCodes, err := client.VerifyTwoFactor(t.Context(), code)
	require.NoError(t, err)
	require.Len(t, backupCodes, 10)
	return backupCodes
}

// TestTwoFactorEnrollmentAndChallenge covers enrollment and both challenge
// methods: the emailed code and a backup code.
func TestTwoFactorEnrollmentAndChallenge(t *testing.T) {
	env := setupServer(t)

	client, _ := registerAndLogin(t, env, "judy", "judy@example.com", "Sup3rSecret!")
	backupCodes := enrollTwoFactor(t, env, client, "judy@example.com")

	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.True(t, me.TwoFactorEnabled)
	require.True(t, me.TwoFactorVerified)

	// Login now yields a challenge rather than a session
	fresh := newClient(t, env)
	result, err := fresh.Login(t.Context(), "judy", "Sup3rSecret!")
	require.NoError(t, err)
	require.Nil(t, result.User)
	require.NotNil(t, result.Challenge)
	require.True(t, result.Challenge.MFARequired)
	require.NotEmpty(t, result.Challenge.MFAToken)
	require.Contains(t, result.Challenge.Methods, "email")
	require.Contains(t, result.Challenge.Methods, "backup_code")

	// The challenge was only announced, no session yet
	_, err = fresh.Me(t.Context())
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// Complete the challenge with the emailed code
	loginCode := env.Recorder.LastCode("judy@example.com")
	user, err := fresh.CompleteChallenge(t.Context(), authclient.ChallengeRequest{
		MFAToken: result.Challenge.MFAToken,
		Code:     loginCode,
	})
	require.NoError(t, err)
	require.Equal(t, "judy", user.Username)

	_, err = fresh.Me(t.Context())
	require.NoError(t, err)

	// Log in again, this time redeeming a backup code
	second := newClient(t, env)
	result, err = second.Login(t.Context(), "judy", "Sup3rSecret!")
	require.NoError(t, err)
	require.NotNil(t, result.Challenge)

	user, err = second.CompleteChallenge(t.Context(), authclient.ChallengeRequest{
		MFAToken:   result.Challenge.MFAToken,
		BackupCode: backupCodes[0],
	})
	require.NoError(t, err)
	require.Equal(t, "judy", user.Username)

	// A redeemed backup code never works twice
	third := newClient(t, env)
	result, err = third.Login(t.Context(), "judy", "Sup3rSecret!")
	require.NoError(t, err)

	_, err = third.CompleteChallenge(t.Context(), authclient.ChallengeRequest{
		MFAToken:   result.Challenge.MFAToken,
		BackupCode: backupCodes[0],
	})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestTwoFactorVerifyRejections(t *testing.T) {
	env := setupServer(t)

	client, _ := registerAndLogin(t, env, "mallory", "mallory@example.com", "Sup3rSecret!")

	// Verify without a pending enrollment
	_, err := client.VerifyTwoFactor(t.Context(), "123456")
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	// A wrong guess does not consume the pending code
	require.NoError(t, client.EnableTwoFactor(t.Context()))
	code := env.Recorder.LastCode("mallory@example.com")

	_, err = client.VerifyTwoFactor(t.Context(), wrongCode(code))
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	backupCodes, err := client.VerifyTwoFactor(t.Context(), code)
	require.NoError(t, err)
	require.Len(t, backupCodes, 10)
}

// TestTwoFactorChallengeAttemptCap locks a challenge after repeated wrong
// guesses, even if the right code follows.
func TestTwoFactorChallengeAttemptCap(t *testing.T) {
	env := setupServer(t)

	client, _ := registerAndLogin(t, env, "nina", "nina@example.com", "Sup3rSecret!")
	enrollTwoFactor(t, env, client, "nina@example.com")

	fresh := newClient(t, env)
	result, err := fresh.Login(t.Context(), "nina", "Sup3rSecret!")
	require.NoError(t, err)
	require.NotNil(t, result.Challenge)

	code := env.Recorder.LastCode("nina@example.com")

	var apiErr *authclient.APIError
	for range 5 {
		_, err = fresh.CompleteChallenge(t.Context(), authclient.ChallengeRequest{
			MFAToken: result.Challenge.MFAToken,
			Code:     wrongCode(code),
		})
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	}

	_, err = fresh.CompleteChallenge(t.Context(), authclient.ChallengeRequest{
		MFAToken: result.Challenge.MFAToken,
		Code:     code,
	})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode, "exhausted challenge should refuse the correct code")
}

func TestTwoFactorDisable(t *testing.T) {
	env := setupServer(t)

	client, _ := registerAndLogin(t, env, "oscar", "oscar@example.com", "Sup3rSecret!")
	enrollTwoFactor(t, env, client, "oscar@example.com")

	require.NoError(t, client.DisableTwoFactor(t.Context()))

	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.False(t, me.TwoFactorEnabled)
	require.False(t, me.TwoFactorVerified)

	// Login goes straight to a session again
	loginUser(t, env, "oscar", "Sup3rSecret!")
}

// TestTwoFactorEnableDispatchFailure verifies nothing is left half enrolled
// when the verification email cannot be sent.
func TestTwoFactorEnableDispatchFailure(t *testing.T) {
	env := setupServer(t)

	client, _ := registerAndLogin(t, env, "peggy", "peggy@example.com", "Sup3rSecret!")

	env.Recorder.FailSends = true
	err := client.EnableTwoFactor(t.Context())
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.False(t, me.TwoFactorEnabled)

	// Recovery: once mail flows again enrollment proceeds normally
	env.Recorder.FailSends = false
	enrollTwoFactor(t, env, client, "peggy@example.com")
}
