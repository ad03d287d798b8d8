package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the tracking API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	session    Session
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, session Session, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		session: session,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/session", s.handleSnapshot)
	mux.HandleFunc("POST /api/v1/session/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/session/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/v1/session/progress", s.handleProgress)
	mux.HandleFunc("PUT /api/v1/session/language", s.handleLanguage)
	mux.HandleFunc("GET /api/v1/notifications", s.handleNotifications)
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", s.handleMarkRead)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
