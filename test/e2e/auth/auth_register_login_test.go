package auth_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentdesk/agentdesk/pkg/authclient"
)

// TestRegisterLoginLogout walks the basic session lifecycle end to end.
func TestRegisterLoginLogout(t *testing.T) {
	env := setupServer(t)

	client, user := registerAndLogin(t, env, "alice", "alice@example.com", "Sup3rSecret!")
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "user", user.Role)
	require.False(t, user.TwoFactorEnabled)

	// Registration establishes a session immediately
	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)

	require.NoError(t, client.Logout(t.Context()))

	_, err = client.Me(t.Context())
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// A fresh login works on a new client
	again := loginUser(t, env, "alice", "Sup3rSecret!")
	me, err = again.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	env := setupServer(t)

	registerAndLogin(t, env, "bob", "bob@example.com", "Sup3rSecret!")

	tests := []struct {
		name string
		req  authclient.RegisterRequest
	}{
		{"username taken", authclient.RegisterRequest{
			Username: "bob", Email: "other@example.com", Password: "Sup3rSecret!",
		}},
		{"email taken", authclient.RegisterRequest{
			Username: "bob2", Email: "bob@example.com", Password: "Sup3rSecret!",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, env)
			_, err := client.Register(t.Context(), tt.req)

			var apiErr *authclient.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			require.Equal(t, "username or email already in use", apiErr.Message)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupServer(t)
	client := newClient(t, env)

	tests := []struct {
		name string
		req  authclient.RegisterRequest
	}{
		{"short password", authclient.RegisterRequest{
			Username: "carol", Email: "carol@example.com", Password: "short",
		}},
		{"bad username characters", authclient.RegisterRequest{
			Username: "carol!", Email: "carol@example.com", Password: "Sup3rSecret!",
		}},
		{"bad email", authclient.RegisterRequest{
			Username: "carol", Email: "not-an-email", Password: "Sup3rSecret!",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Register(t.Context(), tt.req)

			var apiErr *authclient.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		})
	}
}

// TestLoginRejections checks that unknown usernames and wrong passwords are
// indistinguishable to the caller.
func TestLoginRejections(t *testing.T) {
	env := setupServer(t)
	registerAndLogin(t, env, "dave", "dave@example.com", "Sup3rSecret!")

	challengeErr := func(username, password string) *authclient.APIError {
		client := newClient(t, env)
		_, err := client.Login(t.Context(), username, password)

		var apiErr *authclient.APIError
		require.True(t, errors.As(err, &apiErr))
		return apiErr
	}

	wrongPassword := challengeErr("dave", "WrongPassword1!")
	unknownUser := challengeErr("nosuchuser", "WrongPassword1!")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
	require.Equal(t, wrongPassword.Message, unknownUser.Message)
}

func TestUpdateProfile(t *testing.T) {
	env := setupServer(t)

	client, _ := registerAndLogin(t, env, "erin", "erin@example.com", "Sup3rSecret!")

	updated, err := client.UpdateProfile(t.Context(), authclient.UpdateProfileRequest{
		DisplayName: ptr("Erin Example"),
	})
	require.NoError(t, err)
	require.Equal(t, "Erin Example", updated.DisplayName)
	require.Equal(t, "erin@example.com", updated.Email, "email untouched by partial update")

	updated, err = client.UpdateProfile(t.Context(), authclient.UpdateProfileRequest{
		Email: ptr("erin2@example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "erin2@example.com", updated.Email)
	require.Equal(t, "Erin Example", updated.DisplayName)

	// Taking another account's email is a conflict
	registerAndLogin(t, env, "frank", "frank@example.com", "Sup3rSecret!")

	_, err = client.UpdateProfile(t.Context(), authclient.UpdateProfileRequest{
		Email: ptr("frank@example.com"),
	})
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
}
