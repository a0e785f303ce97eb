package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/httpx"
)

// TestLoginRateLimit tightens the credential-endpoint profile for one
// server and hammers login until the limiter pushes back.
func TestLoginRateLimit(t *testing.T) {
	saved := httpx.StrictLimit
	httpx.StrictLimit = httpx.RateLimitConfig{
		RequestsPerWindow: 3,
		Window:            time.Minute,
		Burst:             3,
	}
	defer func() { httpx.StrictLimit = saved }()

	env := setupServer(t)
	registerAndLogin(t, env, "victim", "victim@example.com", "Sup3rSecret!")

	client := newClient(t, env)

	var apiErr *authclient.APIError
	limited := false
	for range 10 {
		_, err := client.Login(t.Context(), "victim", "WrongPassword1!")
		require.Error(t, err)
		require.ErrorAs(t, err, &apiErr)

		if apiErr.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	}
	require.True(t, limited, "limiter should kick in within the burst allowance")

	// Another username from the same IP has its own budget
	registerAndLogin(t, env, "bystander", "bystander@example.com", "Sup3rSecret!")
	loginUser(t, env, "bystander", "Sup3rSecret!")
}
