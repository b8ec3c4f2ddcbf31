// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/examboard/internal/app"
	"github.com/okian/examboard/internal/domain/export"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/types"
	"github.com/okian/examboard/pkg/metrics"
)

const defaultMaxUploadBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the runs service.
type Dependencies interface {
	Submit(ctx context.Context, files []model.File, o service.Overrides) (model.Run, error)
	Run(ctx context.Context, id string) (model.Run, error)
	Runs(ctx context.Context, limit int) ([]model.Run, error)
	Leaderboard(ctx context.Context, id string, limit int) ([]types.Entry, error)
	Export(ctx context.Context, id string, view export.View) (export.Table, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Option configures the Server.
type Option func(*Server)

// WithMaxUploadBytes caps the body of POST /runs.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.runsHandler.maxUploadBytes = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	runsHandler        *RunsHandler
	leaderboardHandler *LeaderboardHandler
	exportHandler      *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		runsHandler:        NewRunsHandler(deps, defaultMaxUploadBytes),
		leaderboardHandler: NewLeaderboardHandler(deps),
		exportHandler:      NewExportHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", MetricsMiddleware(s.runsHandler.HandleSubmit, "runs_submit"))
		r.Get("/", MetricsMiddleware(s.runsHandler.HandleList, "runs_list"))
		r.Get("/{id}", MetricsMiddleware(s.runsHandler.HandleGet, "runs_get"))
		r.Get("/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
		r.Get("/{id}/exports/{view}", MetricsMiddleware(s.exportHandler.HandleExport, "exports"))
	})
}

// NewRouter returns a chi router with the standard middleware stack.
func NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if rec, ok := w.(codeRecorder); ok {
		rec.recordErrorCode(code)
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, export.ErrUnknownView):
		writeError(w, http.StatusNotFound, "unknown_view", err)
	case errors.Is(err, service.ErrRunPending):
		writeError(w, http.StatusConflict, "run_pending", err)
	case errors.Is(err, service.ErrRunFailed):
		writeError(w, http.StatusConflict, "run_failed", err)
	case errors.Is(err, service.ErrNoFiles), errors.Is(err, service.ErrUnsupportedFile):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
