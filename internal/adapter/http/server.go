// Package http exposes an aggregation run over HTTP: liveness, ingest
// progress, the finished flight statistics, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugene-g/ambiata-weather/internal/domain"
)

// RunTracker is the view of the pipeline the endpoints report on: whether the
// first record has been aggregated, and how far the ingest has progressed.
type RunTracker interface {
	CheckReadiness(ctx context.Context) error
	Progress() (records, skipped int64)
}

// Server serves /healthz, /readyz, /stats, and /metrics alongside a running
// aggregation. /stats answers 503 until the finished result is handed over
// with PublishStats.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	tracker    RunTracker

	mu    sync.RWMutex
	stats *domain.FlightStats
}

// NewServer creates the HTTP server for the given listen address.
func NewServer(addr string, tracker RunTracker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		tracker: tracker,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.Handle("GET /metrics", promhttp.Handler())

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

// PublishStats makes a finished run's statistics available on /stats.
func (s *Server) PublishStats(stats *domain.FlightStats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// progressPayload reports ingest progress on /readyz, and on /stats while the
// run has not finished yet.
type progressPayload struct {
	Status            string `json:"status"`
	RecordsAggregated int64  `json:"records_aggregated"`
	LinesSkipped      int64  `json:"lines_skipped"`
	Error             string `json:"error,omitempty"`
}

// statsPayload is the /stats response. Temperatures and distance are decimal
// strings so the exact aggregation results survive JSON.
type statsPayload struct {
	MinTempKelvin  string         `json:"min_temp_k"`
	MaxTempKelvin  string         `json:"max_temp_k"`
	MeanTempKelvin string         `json:"mean_temp_k"`
	Observations   map[string]int `json:"observations"`
	DistanceMeters string         `json:"distance_m"`
	Records        int64          `json:"records"`
	ComputedAt     time.Time      `json:"computed_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	records, skipped := s.tracker.Progress()
	if err := s.tracker.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, progressPayload{
			Status:            "not ready",
			RecordsAggregated: records,
			LinesSkipped:      skipped,
			Error:             err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, progressPayload{
		Status:            "ready",
		RecordsAggregated: records,
		LinesSkipped:      skipped,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()

	if stats == nil {
		records, skipped := s.tracker.Progress()
		writeJSON(w, http.StatusServiceUnavailable, progressPayload{
			Status:            "aggregation in progress",
			RecordsAggregated: records,
			LinesSkipped:      skipped,
		})
		return
	}
	writeJSON(w, http.StatusOK, statsPayload{
		MinTempKelvin:  stats.MinTemp.String(),
		MaxTempKelvin:  stats.MaxTemp.String(),
		MeanTempKelvin: stats.MeanTemp.String(),
		Observations:   stats.Observations,
		DistanceMeters: stats.Distance.String(),
		Records:        stats.NumberOfRecords,
		ComputedAt:     stats.ComputedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
