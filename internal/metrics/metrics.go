package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_fetch_requests_total",
			Help: "Total number of outbound page and search requests",
		},
		[]string{"domain", "status", "blocked", "blocked_by"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sift_fetch_duration_seconds",
			Help:    "Duration of outbound requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"domain"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_fetch_bytes_total",
			Help: "Total bytes downloaded across all requests",
		},
		[]string{"domain"},
	)

	SearchCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_search_calls_total",
			Help: "Search provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	GenerationCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_generation_calls_total",
			Help: "Text generation backend calls by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sift_generation_duration_seconds",
			Help:    "Duration of text generation calls in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_cache_lookups_total",
			Help: "Research cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sift_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		},
	)
)

// FetchOutcome is what RecordFetch needs to know about one request.
type FetchOutcome struct {
	StatusCode int
	Bytes      int
	Duration   time.Duration
	BlockedBy  string
	Failed     bool
}

// RecordFetch updates the fetch metrics for a request against domain.
func RecordFetch(domain string, o FetchOutcome) {
	blocked := "false"
	if o.BlockedBy != "" {
		blocked = "true"
	}

	status := strconv.Itoa(o.StatusCode)
	if o.Failed {
		status = "error"
	}

	FetchRequestsTotal.WithLabelValues(domain, status, blocked, o.BlockedBy).Inc()
	FetchDuration.WithLabelValues(domain).Observe(o.Duration.Seconds())
	FetchBytesTotal.WithLabelValues(domain).Add(float64(o.Bytes))
}

// RecordSearch counts one provider call. ok is false when it yielded an error.
func RecordSearch(provider string, ok bool) {
	SearchCallsTotal.WithLabelValues(provider, outcome(ok)).Inc()
}

// RecordGeneration counts one generation call and its latency.
func RecordGeneration(d time.Duration, ok bool) {
	GenerationCallsTotal.WithLabelValues(outcome(ok)).Inc()
	GenerationDuration.Observe(d.Seconds())
}

// RecordCacheLookup counts a cache hit or miss for the named backend.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(backend, result).Inc()
}

// RecordRun counts a finished pipeline run.
func RecordRun(d time.Duration, ok bool) {
	PipelineRunsTotal.WithLabelValues(outcome(ok)).Inc()
	PipelineDuration.Observe(d.Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
