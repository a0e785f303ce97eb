package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/httpx"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion  string
	secureCookies bool
	debugTokens   bool
	startTime     time.Time
	logger        *slog.Logger

	store            store.Store
	AuthService      *service.AuthService
	SessionService   *service.SessionService
	TwoFactorService *service.TwoFactorService
	ResetService     *service.PasswordResetService
	UserAdminService *service.UserAdminService
}

// NewRouter builds an unrouted Router. secureCookies forces the Secure flag
// on session cookies; debugTokens surfaces reset tokens in forgot-password
// responses and must be off in production.
func NewRouter(
	buildVersion string,
	secureCookies, debugTokens bool,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		secureCookies: secureCookies,
		debugTokens:   debugTokens,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUser()
	r.registerPasswordReset()
	r.registerTwoFactor()
	r.registerUsersAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// session resolves the cookie without enforcing authentication.
func (r *Router) session() httpx.Middleware {
	return SessionMiddleware(r.SessionService)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{
		AuthService:    r.AuthService,
		SessionService: r.SessionService,
		SecureCookies:  r.secureCookies,
	}

	// POST /api/register - strict rate limit by IP (account creation)
	r.Mux.Handle("POST /api/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	loginHandler := &LoginHandler{
		AuthService:      r.AuthService,
		SessionService:   r.SessionService,
		TwoFactorService: r.TwoFactorService,
		SecureCookies:    r.secureCookies,
	}

	// POST /api/login - strict rate limit by IP + username body field to
	// slow per-account brute force
	r.Mux.Handle("POST /api/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "username"),
		),
	)

	// POST /api/logout - moderate rate limit
	logoutHandler := &LogoutHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /api/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUser() {
	h := &UserHandler{UserAdminService: r.UserAdminService}

	r.Mux.Handle("GET /api/user",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.session(),
			RequireAuth(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("PATCH /api/user",
		httpx.Chain(http.HandlerFunc(h.HandlePatch),
			r.session(),
			RequireAuth(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{
		ResetService:     r.ResetService,
		ExposeDebugToken: r.debugTokens,
	}

	// Both endpoints are unauthenticated and brute-forceable; strict IP
	// limits on each.
	r.Mux.Handle("POST /api/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{
		TwoFactorService: r.TwoFactorService,
		SessionService:   r.SessionService,
		SecureCookies:    r.secureCookies,
	}

	secured := func(handler http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(handler,
			r.session(),
			RequireAuth(),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /api/2fa/enable", secured(h.HandleEnable, httpx.ModerateLimit))

	// Verify guesses are strictly limited to blunt 6-digit brute force
	r.Mux.Handle("POST /api/2fa/verify", secured(h.HandleVerify, httpx.StrictLimit))
	r.Mux.Handle("POST /api/2fa/disable", secured(h.HandleDisable, httpx.ModerateLimit))

	// POST /api/2fa/challenge - pre-session, strict rate limit by IP
	r.Mux.Handle("POST /api/2fa/challenge",
		httpx.Chain(http.HandlerFunc(h.HandleChallenge),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsersAdmin() {
	h := &UsersAdminHandler{UserAdminService: r.UserAdminService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			r.session(),
			RequireAdmin(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /api/users", secured(h.HandleList))
	r.Mux.Handle("PATCH /api/users/{id}/role", secured(h.HandleChangeRole))
	r.Mux.Handle("DELETE /api/users/{id}", secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
