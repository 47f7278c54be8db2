// Package httpadapter serves the hydrology REST API alongside the health,
// readiness and metrics endpoints.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
)

// Options configures the API routes.
type Options struct {
	// Prefix is prepended to every API route, e.g. "/anuga/api". Empty mounts at the root.
	Prefix string
	// MaxBodyBytes caps request bodies; larger bodies are answered with 413.
	MaxBodyBytes int64
}

// Server exposes the hydrology API plus /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server routing the API to svc.
func NewServer(addr string, svc Service, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	api := &api{svc: svc, maxBody: opts.MaxBodyBytes, logger: logger}
	api.register(mux, opts.Prefix)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      instrument(mux, metrics),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
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
