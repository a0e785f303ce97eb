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

// TwoFactorHandler handles the two-factor lifecycle endpoints plus the login
// challenge completion.
type TwoFactorHandler struct {
	TwoFactorService *service.TwoFactorService
	SessionService   *service.SessionService
	SecureCookies    bool
}

// HandleEnable handles POST /api/2fa/enable.
func (h *TwoFactorHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.TwoFactorService.Enable(ctx, user.ID); err != nil {
		if errors.Is(err, service.ErrEmailDispatch) {
			httpx.WriteError(w, http.StatusInternalServerError, "verification email could not be sent")
			return
		}
		log.Error("two-factor enable failed", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "verification code sent",
	})
}

// HandleVerify handles POST /api/2fa/verify. On success the backup codes are
// returned exactly once.
func (h *TwoFactorHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req authclient.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	backupCodes, err := h.TwoFactorService.Verify(ctx, user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoVerificationInProgress):
			httpx.WriteError(w, http.StatusBadRequest, "no verification in progress")
		case errors.Is(err, service.ErrCodeExpired):
			httpx.WriteError(w, http.StatusBadRequest, "verification code expired")
		case errors.Is(err, service.ErrInvalidCode):
			httpx.WriteError(w, http.StatusBadRequest, "invalid verification code")
		default:
			log.Error("two-factor verify failed", "user_id", user.ID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authclient.BackupCodesResponse{
		BackupCodes: backupCodes,
	})
}

// HandleDisable handles POST /api/2fa/disable.
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.TwoFactorService.Disable(ctx, user.ID); err != nil {
		log.Error("two-factor disable failed", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "two-factor disabled"})
}

// HandleChallenge handles POST /api/2fa/challenge: completes a pending login
// challenge with either the emailed code or a backup code and establishes
// the session.
func (h *TwoFactorHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authclient.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MFAToken == "" || (req.Code == "" && req.BackupCode == "") {
		httpx.WriteError(w, http.StatusBadRequest, "mfa_token and a code are required")
		return
	}

	user, err := h.TwoFactorService.CompleteLoginChallenge(ctx, req.MFAToken, req.Code, req.BackupCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeInvalid):
			httpx.WriteError(w, http.StatusBadRequest, "invalid or expired challenge")
		case errors.Is(err, service.ErrInvalidCode):
			httpx.WriteError(w, http.StatusBadRequest, "invalid verification code")
		default:
			log.Error("login challenge failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	token, expiresAt, err := h.SessionService.Establish(ctx, user.ID)
	if err != nil {
		log.Error("failed to establish session after challenge", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	setSessionCookie(w, token, expiresAt, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, user.Principal())
}
