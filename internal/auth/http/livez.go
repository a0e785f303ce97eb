package http

import (
	"net/http"
	"time"

	"github.com/agentdesk/agentdesk/pkg/authclient"
	"github.com/agentdesk/agentdesk/pkg/httpx"
)

// LivezHandler returns 200 whenever the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authclient.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
