package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
)

type serversResponse struct {
	Servers map[string]*domain.ServerSnapshot `json:"servers"`
}

// Servers returns every configured server. Servers without data are null.
func Servers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, serversResponse{Servers: d.Registry.All()})
	}
}

// Server returns the snapshot of one server, addressed as "host:port".
func Server(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := url.PathUnescape(chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid address")
			return
		}

		addr, err := domain.ParseServerAddress(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap, known := d.Registry.Get(addr)
		if !known {
			writeError(w, http.StatusNotFound, "server not monitored")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
