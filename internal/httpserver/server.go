package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/roomwatch/internal/config"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/mw"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/routes"
	"github.com/MrSnakeDoc/roomwatch/internal/logger"
)

// Server serves the read-only query API over the registry.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(loggerClient, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:   s,
		logger: loggerClient,
	}
}

// NewRouter returns the router with every registered route mounted.
func NewRouter(loggerClient logger.Logger, d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Second))
	r.Use(mw.Log(loggerClient, d.TrustProxy))
	r.Use(mw.RateLimit(mw.RateLimitConfig{
		RPS:        d.RateLimitRPS,
		Burst:      d.RateLimitBurst,
		TrustProxy: d.TrustProxy,
	}))

	groups := routes.RegisterAll(r, d)
	loggerClient.Debug("routes registered", logger.Strings("groups", groups))
	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
