package http

import (
	"net/http"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/httpx"
)

// ReadyzHandler reports readiness: 503 when the database is unreachable.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authclient.HealthChecks{Database: "ok"}
		status := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authclient.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
