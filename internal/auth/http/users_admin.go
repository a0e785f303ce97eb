package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/httpx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// UsersAdminHandler covers the admin user-management endpoints. All of them
// are scoped to the caller's business.
type UsersAdminHandler struct {
	UserAdminService *service.UserAdminService
}

// HandleList handles GET /api/users.
func (h *UsersAdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	caller, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	users, err := h.UserAdminService.ListBusinessUsers(ctx, caller)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			httpx.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		log.Error("failed to list users", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := authclient.ListUsersResponse{Users: make([]authclient.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, principalResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleChangeRole handles PATCH /api/users/{id}/role.
func (h *UsersAdminHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	caller, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID := r.PathValue("id")
	if targetID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "user id is required")
		return
	}

	var req authclient.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Role != domain.RoleUser && req.Role != domain.RoleAdmin {
		httpx.WriteError(w, http.StatusBadRequest, "role must be \"user\" or \"admin\"")
		return
	}

	updated, err := h.UserAdminService.ChangeRole(ctx, caller, targetID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, "operation not permitted")
		default:
			log.Error("failed to change role", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated.Principal())
}

// HandleDelete handles DELETE /api/users/{id}.
func (h *UsersAdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	caller, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID := r.PathValue("id")
	if targetID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.UserAdminService.DeleteUser(ctx, caller, targetID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, "operation not permitted")
		default:
			log.Error("failed to delete user", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// principalResponse maps a user record to the API's serialized view.
func principalResponse(u domain.User) authclient.UserResponse {
	p := u.Principal()
	return authclient.UserResponse{
		ID:                p.ID,
		Username:          p.Username,
		Email:             p.Email,
		DisplayName:       p.DisplayName,
		Role:              p.Role,
		BusinessID:        p.BusinessID,
		TwoFactorEnabled:  p.TwoFactorEnabled,
		TwoFactorVerified: p.TwoFactorVerified,
	}
}
