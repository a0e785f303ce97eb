package http

import (
	"context"
	"net/http"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/domain"
	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/pkg/httpx"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "agentdesk_sid"

type principalCtxKey struct{}

// PrincipalFromContext returns the authenticated user attached by
// SessionMiddleware, if any.
func PrincipalFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(principalCtxKey{}).(domain.User)
	return u, ok
}

// SessionMiddleware resolves the session cookie into a user record and
// attaches it to the request context. The user is reloaded from the store on
// every request, so role and tenant changes take effect immediately. Requests
// without a valid session pass through unauthenticated; enforcement is
// RequireAuth's job.
func SessionMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				// Invalid or expired; the cookie is cleared so the client
				// stops presenting it.
				clearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalCtxKey{}, user)
			ctx = httpx.ContextWithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects non-admin requests with 403 (401 when unauthenticated).
func RequireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !user.IsAdmin() {
				httpx.WriteError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setSessionCookie installs the session cookie. Secure is on outside of
// development so the cookie only travels over TLS.
func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
