package http

import (
	"net/http"

	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/pkg/httpx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// LogoutHandler handles POST /api/logout. Logout always succeeds, with or
// without a live session.
type LogoutHandler struct {
	SessionService *service.SessionService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var token string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.SessionService.Destroy(ctx, token); err != nil {
		// The cookie is still cleared; the row gets swept by housekeeping.
		slogx.FromContext(ctx).Error("failed to destroy session", "err", err)
	}

	clearSessionCookie(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
