package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Running    *int   `json:"running,omitempty"`
	Total      *int   `json:"total,omitempty"`
	Available  *int   `json:"available,omitempty"`
	LastUpdate string `json:"last_update,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the status of each component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"sessions": checkSessions(d),
			"registry": checkRegistry(d),
			"redis":    checkRedis(r.Context(), d),
			"metrics":  checkMetrics(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if !components["sessions"].OK {
		return "critical"
	}
	for _, name := range []string{"registry", "redis"} {
		if c := components[name]; !c.OK && c.Mode != "disabled" {
			return "degraded"
		}
	}
	return "operational"
}

func checkSessions(d deps.Deps) componentStatus {
	total := d.Registry.Count()
	running := 0
	if d.Sessions != nil {
		running = len(d.Sessions.Running())
	}
	return componentStatus{
		OK:      total > 0 && running == total,
		Running: &running,
		Total:   &total,
	}
}

func checkRegistry(d deps.Deps) componentStatus {
	total := d.Registry.Count()
	available := d.Registry.Available()

	status := componentStatus{
		OK:         available > 0,
		Total:      &total,
		Available:  &available,
		LastUpdate: "never",
	}
	if last := d.Registry.LastUpdate(); !last.IsZero() {
		status.LastUpdate = last.UTC().Format(time.RFC3339)
	}
	if available == 0 {
		status.Impact = "no-server-data"
	}
	return status
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "mirror-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "mirror-stale",
			Error:  err.Error(),
		}
	}

	status := componentStatus{OK: true, Mode: "mirroring", LastUpdate: "never"}
	if d.Mirror != nil {
		last, err := d.Mirror.Status()
		if !last.IsZero() {
			status.LastUpdate = last.UTC().Format(time.RFC3339)
		}
		if err != nil {
			status.OK = false
			status.Mode = "degraded"
			status.Error = err.Error()
		}
	}
	return status
}

func checkMetrics(d deps.Deps) componentStatus {
	if !d.MetricsEnabled {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return componentStatus{OK: true, Mode: "prometheus"}
}
