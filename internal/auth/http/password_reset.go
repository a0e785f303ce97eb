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

const forgotPasswordMessage = "If that email is registered, a reset link has been sent."

// PasswordResetHandler handles POST /api/forgot-password and
// POST /api/reset-password.
type PasswordResetHandler struct {
	ResetService *service.PasswordResetService

	// ExposeDebugToken surfaces the plaintext reset token in the
	// forgot-password response. Never enabled in production.
	ExposeDebugToken bool
}

// HandleForgot starts a reset. The response is identical whether or not the
// address maps to an account, including when the email could not be sent, so
// the endpoint leaks no account existence signal.
func (h *PasswordResetHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authclient.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	token, err := h.ResetService.Request(ctx, req.Email)
	if err != nil && !errors.Is(err, service.ErrEmailDispatch) {
		log.Error("password reset request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := authclient.ForgotPasswordResponse{Message: forgotPasswordMessage}
	if h.ExposeDebugToken {
		resp.DebugToken = token
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleReset redeems a reset token.
func (h *PasswordResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authclient.ResetPasswordRequest
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

	if err := h.ResetService.Consume(ctx, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid or expired reset token")
			return
		}
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
