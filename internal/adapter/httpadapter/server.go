package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
)

const maxListLimit = 1000

// VolumeLister lists catalogued volume records.
type VolumeLister interface {
	ListVolumes(ctx context.Context, f domain.VolumeFilter) ([]domain.VolumeRecord, error)
}

// Server exposes health, readiness, metrics and catalog HTTP endpoints.
type Server struct {
	httpServer *http.Server
	volumes    VolumeLister
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics
// routes, plus /volumes when volumes is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, volumes VolumeLister, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		volumes: volumes,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if volumes != nil {
		mux.HandleFunc("GET /volumes", s.handleVolumes)
	}

	return s
}

// handleVolumes lists volume records, newest first. Query parameters:
// station (e.g. Z9250) and limit (1-1000).
func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	f := domain.VolumeFilter{Station: r.URL.Query().Get("station")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 1000"})
			return
		}
		f.Limit = n
	}

	records, err := s.volumes.ListVolumes(r.Context(), f)
	if err != nil {
		s.logger.Error("list volumes failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "list volumes failed"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, records)
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
