package auth_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/email"
	httpapi "github.com/agentdesk/agentdesk/internal/auth/http"
	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/internal/auth/store/drivers/sqlite"
	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/httpx"
	"github.com/agentdesk/agentdesk/pkg/idx"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "agentdesk-e2e-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	// Raise rate limits so scenario tests don't trip them. The rate limit
	// test swaps in its own tight profile for one server.
	relaxed := httpx.RateLimitConfig{
		RequestsPerWindow: 1000,
		Window:            time.Minute,
		Burst:             1000,
	}
	httpx.StrictLimit = relaxed
	httpx.ModerateLimit = relaxed
	httpx.LenientLimit = relaxed

	os.Exit(m.Run())
}

// testEnv is one fully wired auth service running in-process.
type testEnv struct {
	Server   *httptest.Server
	Store    *sqlite.Store
	Recorder *email.Recorder
}

// setupServer builds the full stack against a temp-file database and serves
// it from an httptest server. Debug tokens are on, as in a dev deployment.
func setupServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	recorder := email.NewRecorder()
	logger := slog.New(slog.DiscardHandler)

	router := httpapi.NewRouter("e2e", false, true, st, logger)
	router.AuthService = &service.AuthService{Store: st}
	router.SessionService = &service.SessionService{Store: st}
	router.TwoFactorService = &service.TwoFactorService{Store: st, Sender: recorder}
	router.ResetService = &service.PasswordResetService{Store: st, Sender: recorder}
	router.UserAdminService = &service.UserAdminService{Store: st}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{Server: server, Store: st, Recorder: recorder}
}

func newClient(t *testing.T, env *testEnv) *authclient.Client {
	t.Helper()

	client, err := authclient.NewClient(env.Server.URL)
	require.NoError(t, err)
	return client
}

// registerAndLogin registers a fresh account and returns a client holding
// its session cookie.
func registerAndLogin(t *testing.T, env *testEnv, username, emailAddr, password string) (*authclient.Client, *authclient.UserResponse) {
	t.Helper()

	client := newClient(t, env)
	user, err := client.Register(t.Context(), authclient.RegisterRequest{
		Username: username,
		Email:    emailAddr,
		Password: password,
	})
	require.NoError(t, err)
	return client, user
}

// seedBusinessUser inserts a user directly into the store with a tenant
// assignment, which registration alone cannot do.
func seedBusinessUser(t *testing.T, env *testEnv, username, emailAddr, password, role string, businessID *string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        emailAddr,
		DisplayName:  username,
		PasswordHash: hash,
		Role:         role,
		BusinessID:   businessID,
	}
	require.NoError(t, env.Store.Users().CreateUser(context.Background(), user))

	stored, err := env.Store.Users().GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	return stored
}

func ptr(s string) *string { return &s }

// loginUser logs in and requires a plain session (no second factor).
func loginUser(t *testing.T, env *testEnv, username, password string) *authclient.Client {
	t.Helper()

	client := newClient(t, env)
	result, err := client.Login(t.Context(), username, password)
	require.NoError(t, err)
	require.NotNil(t, result.User, "expected a session, got an MFA challenge")
	return client
}

// wrongCode returns a six-digit code guaranteed to differ from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}
