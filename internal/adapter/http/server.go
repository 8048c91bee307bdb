package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geoscore/bfg-harvest/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Harvester executes one validated request synchronously.
type Harvester interface {
	Harvest(ctx context.Context, req domain.Request) ([]domain.HarvestedRecord, error)
}

// Server exposes health, readiness, metrics, and synchronous harvest HTTP
// endpoints.
type Server struct {
	httpServer *http.Server
	harvester  Harvester
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /harvest routes.
func NewServer(addr string, ready ReadinessChecker, harvester Harvester, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		harvester: harvester,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /harvest", s.handleHarvest)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleHarvest runs one harvest request synchronously and returns the
// records as JSON.
func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	records, err := s.harvester.Harvest(r.Context(), req)
	if err != nil {
		s.logger.Warn("harvest request failed", "error", err, "harvester", req.HarvesterName)
		writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// statusForError maps the harvest error taxonomy onto HTTP statuses: bad
// requests 400, well-formed requests the data cannot satisfy 422, everything
// else (broken configuration, I/O failures) 500.
func statusForError(err error) int {
	var (
		unknownErr     *domain.UnknownVariableError
		statErr        *domain.InvalidStatisticError
		regionErr      *domain.InvalidRegionError
		missingErr     *domain.MissingVariableError
		shapeErr       *domain.GridShapeMismatchError
		validationErrs validator.ValidationErrors
	)
	switch {
	case errors.Is(err, domain.ErrEmptyInput),
		errors.As(err, &unknownErr),
		errors.As(err, &statErr),
		errors.As(err, &regionErr),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoValidData),
		errors.Is(err, domain.ErrNoTimeSteps),
		errors.As(err, &missingErr),
		errors.As(err, &shapeErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
