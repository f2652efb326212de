package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/lalamove/internal/cache"
	"github.com/tournevent/lalamove/internal/telemetry"
	"github.com/tournevent/lalamove/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server exposing the carrier registry as a JSON API.
type Server struct {
	port     int
	registry *shipper.Registry
	cities   cache.CityCache
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int

	// Cities caches carrier city lists. Defaults to an in-memory cache
	// with CityCacheTTL.
	Cities       cache.CityCache
	CityCacheTTL time.Duration

	// Metrics defaults to metrics registered with the default registerer.
	Metrics *telemetry.Metrics
}

// New creates a new server instance.
func New(cfg Config, registry *shipper.Registry, logger *otelzap.Logger) *Server {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	cities := cfg.Cities
	if cities == nil {
		cities = cache.NewMemoryCityCache(cfg.CityCacheTTL)
	}

	return &Server{
		port:     cfg.Port,
		registry: registry,
		cities:   cities,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler returns the instrumented HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Carrier API
	mux.HandleFunc("GET /v1/carriers", s.handleCarriers)
	mux.HandleFunc("POST /v1/quotes", s.handleQuotes)
	mux.HandleFunc("GET /v1/carriers/{carrier}/cities", s.handleCities)
	mux.HandleFunc("POST /v1/carriers/{carrier}/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /v1/carriers/{carrier}/orders/{orderID}", s.handleGetOrder)
	mux.HandleFunc("DELETE /v1/carriers/{carrier}/orders/{orderID}", s.handleCancelOrder)
	mux.HandleFunc("POST /v1/carriers/{carrier}/orders/{orderID}/priority-fee", s.handlePriorityFee)
	mux.HandleFunc("GET /v1/carriers/{carrier}/orders/{orderID}/drivers/{driverID}", s.handleGetDriver)

	return telemetry.WrapHandler(mux, "delivro-lalamove")
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
