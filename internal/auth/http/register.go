package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/httpx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// RegisterHandler handles POST /api/register. A successful registration
// establishes a session immediately.
type RegisterHandler struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	SecureCookies  bool
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authclient.RegisterRequest
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

	user, err := h.AuthService.Register(ctx, service.RegisterParams{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateIdentity) {
			httpx.WriteError(w, http.StatusBadRequest, "username or email already in use")
			return
		}
		log.Error("registration failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, expiresAt, err := h.SessionService.Establish(ctx, user.ID)
	if err != nil {
		log.Error("failed to establish session after registration", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	setSessionCookie(w, token, expiresAt, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusCreated, user.Principal())
}
