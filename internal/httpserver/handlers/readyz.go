package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready           bool `json:"ready"`
	SessionsRunning int  `json:"sessions_running"`
	ServersTotal    int  `json:"servers_total"`
}

// Readyz is ready once every configured server has a live session.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		running := 0
		if d.Sessions != nil {
			running = len(d.Sessions.Running())
		}
		total := d.Registry.Count()

		resp := readyzResponse{
			Ready:           total > 0 && running == total,
			SessionsRunning: running,
			ServersTotal:    total,
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
