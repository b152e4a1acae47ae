package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status          string    `json:"status"`
	MonitoringSince string    `json:"monitoring_since"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
	Servers         int       `json:"servers"`
	ServersWithData int       `json:"servers_with_data"`
	LastUpdate      string    `json:"last_update,omitempty"`
	Build           buildInfo `json:"build"`
}

// Healthz reports liveness: the process answers and how much of the fleet
// currently has room data. It never fails on missing data; see /readyz.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:          "ok",
			MonitoringSince: d.StartTime.UTC().Format(time.RFC3339),
			UptimeSeconds:   d.Now().Sub(d.StartTime).Seconds(),
			Servers:         d.Registry.Count(),
			ServersWithData: d.Registry.Available(),
			Build:           build,
		}
		if last := d.Registry.LastUpdate(); !last.IsZero() {
			resp.LastUpdate = last.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
