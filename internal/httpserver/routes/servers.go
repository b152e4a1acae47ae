package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/handlers"
)

func init() { Register("servers", registerServers) }

func registerServers(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Servers(d))
	r.Get("/servers/{address}", handlers.Server(d))
}
