package routes

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var groups = map[string]group{}

// Register adds a named route group. Each group file calls it from init();
// registering the same name twice panics.
func Register(name string, reg Registrar, mws ...Middleware) {
	if _, dup := groups[name]; dup {
		panic("routes: duplicate route group " + name)
	}
	groups[name] = group{name: name, reg: reg, mws: mws}
}

// RegisterAll mounts every group on r in name order and returns the names.
func RegisterAll(r chi.Router, d deps.Deps) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := groups[name]
		g.reg(r.With(g.mws...), d)
	}
	return names
}
