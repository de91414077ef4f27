// Package api provides the HTTP surface of the Graphite feeder.
//
// It exposes a health endpoint for liveness probes and the feeder's own
// Prometheus metrics. There is no device API here; the feeder is a
// one-way bridge and its HTTP surface exists purely for operations.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-graphite/internal/metrics"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BusHealth reports event-bus connectivity for the health endpoint.
type BusHealth interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Bus     BusHealth
	Metrics *metrics.Metrics
	Version string
}

// Server is the HTTP server for the feeder's operational endpoints.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	bus     BusHealth
	metrics *metrics.Metrics
	version string
	server  *http.Server
}

// New creates the API server. Start must be called to begin listening.
func New(deps Deps) *Server {
	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		bus:     deps.Bus,
		metrics: deps.Metrics,
		version: deps.Version,
	}
}

// Start begins listening in a background goroutine.
//
// Listen errors other than graceful shutdown are logged, not returned:
// the HTTP surface is auxiliary and must not take the forwarder down.
func (s *Server) Start(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		s.logger.Info("API server listening", "addr", addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", "error", err)
		}
	}()
}

// Close shuts the server down, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// healthResponse is the JSON body of the health endpoint.
type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	BusConnected bool   `json:"bus_connected"`
}

// handleHealth reports liveness and event-bus connectivity.
//
// The feeder is "degraded" rather than unhealthy when the bus is down:
// the process is fine, it just has nothing to forward.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Version:      s.version,
		BusConnected: s.bus.IsConnected(),
	}
	if !resp.BusConnected {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encoding health response", "error", err)
	}
}
