package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/httpx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// UserHandler serves the authenticated user's own record: GET /api/user and
// PATCH /api/user.
type UserHandler struct {
	UserAdminService *service.UserAdminService
}

// HandleGet returns the authenticated user, secrets stripped.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Principal())
}

// HandlePatch applies a partial profile update.
func (h *UserHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req authclient.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if errs := req.Validate(); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"message": "validation failed",
			"details": errs,
		})
		return
	}

	updated, err := h.UserAdminService.UpdateProfile(ctx, user.ID, service.UpdateProfileParams{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateIdentity) {
			httpx.WriteError(w, http.StatusConflict, "email already in use")
			return
		}
		log.Error("profile update failed", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated.Principal())
}
