// Package server exposes health, Prometheus metrics and the effective
// playback status over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/playback"
)

const (
	readTimeout   = 10 * time.Second
	writeTimeout  = 15 * time.Second
	sourcesWait   = 2 * time.Second
	shutdownGrace = 10 * time.Second
)

// StatusSource is what /status reports on.
type StatusSource interface {
	State() core.PlaybackState
	Sources(ctx context.Context) ([]playback.SourceStatus, error)
}

type Server struct {
	logger *zap.Logger
	server *http.Server
}

// Status is the /status response body.
type Status struct {
	Playback     core.PlaybackState      `json:"playback"`
	Sources      []playback.SourceStatus `json:"sources,omitempty"`
	SourcesError string                  `json:"sources_error,omitempty"`
}

func New(addr string, status StatusSource, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         addr,
			Handler:      setupRoutes(status, gatherer, logger),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

func setupRoutes(status StatusSource, gatherer prometheus.Gatherer, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","service":"kord"}`)); err != nil {
			logger.Debug("Failed to write health response", zap.Error(err))
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		body := Status{Playback: status.State()}

		ctx, cancel := context.WithTimeout(r.Context(), sourcesWait)
		defer cancel()
		sources, err := status.Sources(ctx)
		if err != nil {
			body.SourcesError = err.Error()
		} else {
			body.Sources = sources
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Debug("Failed to write status response", zap.Error(err))
		}
	})

	return mux
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}
