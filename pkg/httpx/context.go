package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID carries the authenticated user's ID, set by the session
	// middleware. Used here for per-user rate limiting.
	CtxKeyUserID ctxKey = "user_id"
)

// UserIDFromContext returns the authenticated user ID, or "" when the
// request is unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID attaches an authenticated user ID to the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}
