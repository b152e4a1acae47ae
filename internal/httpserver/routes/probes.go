package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/handlers"
)

// Probes are polled by orchestrators; keep them out of browser caches.
func init() { Register("probes", registerProbes, middleware.NoCache) }

func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
}
