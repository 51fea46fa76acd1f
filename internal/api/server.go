// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/storage"
)

const (
	maxBodyBytes  = 64 << 10
	healthTimeout = 5 * time.Second
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, brief model.Brief, progress func(string)) (*pipeline.Result, error)
}

// Config configures a Server.
type Config struct {
	// RunTimeout bounds one analyze request. Zero means no limit.
	RunTimeout time.Duration
	Version    string
}

type Server struct {
	runner  Runner
	backend pipeline.Backend
	archive storage.Backend
	config  Config
	logger  *slog.Logger
}

// NewServer creates a Server. archive may be nil, in which case the runs
// endpoint answers 404.
func NewServer(runner Runner, backend pipeline.Backend, archive storage.Backend, cfg Config, logger *slog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:  runner,
		backend: backend,
		archive: archive,
		config:  cfg,
		logger:  logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Get("/runs", s.listRuns)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/health" {
			return
		}
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status           string `json:"status"`
	BackendConnected bool   `json:"backend_connected"`
	Model            string `json:"model"`
	Version          string `json:"version"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	err := s.backend.Ping(ctx)
	if err != nil {
		s.logger.Debug("backend ping failed", "err", err)
	}
	writeJSON(w, healthResponse{
		Status:           "healthy",
		BackendConnected: err == nil,
		Model:            s.backend.Model(),
		Version:          s.config.Version,
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}
