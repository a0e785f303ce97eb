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

// LoginHandler handles POST /api/login. Accounts with verified two-factor do
// not get a session from the password alone; they get a challenge to finish
// via POST /api/2fa/challenge.
type LoginHandler struct {
	AuthService      *service.AuthService
	SessionService   *service.SessionService
	TwoFactorService *service.TwoFactorService
	SecureCookies    bool
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authclient.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.AuthService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if user.TwoFactorVerified {
		challenge, err := h.TwoFactorService.StartLoginChallenge(ctx, user)
		if err != nil {
			log.Error("failed to start login challenge", "user_id", user.ID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, challenge)
		return
	}

	token, expiresAt, err := h.SessionService.Establish(ctx, user.ID)
	if err != nil {
		log.Error("failed to establish session", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	setSessionCookie(w, token, expiresAt, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, user.Principal())
}
