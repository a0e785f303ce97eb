package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/pkg/authclient"
)

// TestAdminUserManagement exercises the tenant-scoped admin endpoints:
// listing, role changes, and deletion.
func TestAdminUserManagement(t *testing.T) {
	env := setupServer(t)

	business := ptr("biz-alpha")
	admin := seedBusinessUser(t, env, "root", "root@alpha.example", "AdminSecret1!", domain.RoleAdmin, business)
	member := seedBusinessUser(t, env, "worker", "worker@alpha.example", "WorkerSecret1!", domain.RoleUser, business)
	seedBusinessUser(t, env, "stranger", "stranger@beta.example", "Stranger1!", domain.RoleUser, ptr("biz-beta"))

	client := loginUser(t, env, "root", "AdminSecret1!")

	// Listing is scoped to the admin's business
	users, err := client.ListUsers(t.Context())
	require.NoError(t, err)
	require.Len(t, users, 2)

	ids := []string{users[0].ID, users[1].ID}
	require.Contains(t, ids, admin.ID)
	require.Contains(t, ids, member.ID)

	// Promote, then demote the member
	updated, err := client.ChangeRole(t.Context(), member.ID, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, updated.Role)

	updated, err = client.ChangeRole(t.Context(), member.ID, domain.RoleUser)
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, updated.Role)

	// Made-up roles are rejected outright
	_, err = client.ChangeRole(t.Context(), member.ID, "superuser")
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	// Deleting the member revokes their sessions with them
	memberClient := loginUser(t, env, "worker", "WorkerSecret1!")
	require.NoError(t, client.DeleteUser(t.Context(), member.ID))

	_, err = memberClient.Me(t.Context())
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	users, err = client.ListUsers(t.Context())
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestAdminTenantBoundary(t *testing.T) {
	env := setupServer(t)

	seedBusinessUser(t, env, "root", "root@alpha.example", "AdminSecret1!", domain.RoleAdmin, ptr("biz-alpha"))
	outsider := seedBusinessUser(t, env, "stranger", "stranger@beta.example", "Stranger1!", domain.RoleUser, ptr("biz-beta"))

	client := loginUser(t, env, "root", "AdminSecret1!")

	var apiErr *authclient.APIError

	_, err := client.ChangeRole(t.Context(), outsider.ID, domain.RoleAdmin)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	err = client.DeleteUser(t.Context(), outsider.ID)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	// Unknown targets are a 404, not a cross-tenant leak of anything more
	_, err = client.ChangeRole(t.Context(), "01J00000000000000000000000", domain.RoleAdmin)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	env := setupServer(t)

	client, user := registerAndLogin(t, env, "quinn", "quinn@example.com", "Sup3rSecret!")

	var apiErr *authclient.APIError

	_, err := client.ListUsers(t.Context())
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = client.ChangeRole(t.Context(), user.ID, domain.RoleAdmin)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	// Anonymous callers get a 401 before any role check
	_, err = newClient(t, env).ListUsers(t.Context())
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

// TestAdminSelfDeleteForbidden stops an admin from removing their own
// account through the management API.
func TestAdminSelfDeleteForbidden(t *testing.T) {
	env := setupServer(t)

	admin := seedBusinessUser(t, env, "root", "root@alpha.example", "AdminSecret1!", domain.RoleAdmin, ptr("biz-alpha"))
	client := loginUser(t, env, "root", "AdminSecret1!")

	err := client.DeleteUser(t.Context(), admin.ID)
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
