package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/presenceio/rosterbridge/internal/bridge"
	"github.com/presenceio/rosterbridge/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bridge is the part of the endpoint the ops server reports on
type Bridge interface {
	State() bridge.State
}

// Config contains ops server configuration
type Config struct {
	// Server address
	Addr string

	// Timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Metrics exposes the Prometheus endpoint when enabled
	Metrics     bool
	MetricsPath string
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		Metrics:      true,
		MetricsPath:  "/metrics",
	}
}

// Server exposes the operational HTTP surface: health and metrics. The
// bridge itself has no wire surface; this server exists for probes and
// scrapers only.
type Server struct {
	config Config
	bridge Bridge
	server *http.Server
	logger zerolog.Logger
}

// New creates an ops server reporting on the given bridge
func New(config Config, b Bridge) *Server {
	if config.Addr == "" {
		config.Addr = DefaultConfig().Addr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = DefaultConfig().ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}
	if config.MetricsPath == "" {
		config.MetricsPath = DefaultConfig().MetricsPath
	}

	return &Server{
		config: config,
		bridge: b,
		logger: log.With().Str("component", "server").Logger(),
	}
}

// Handler builds the chi router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.HTTPMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealth)
	if s.config.Metrics {
		r.Handle(s.config.MetricsPath, promhttp.Handler())
	}

	return r
}

// Start runs the server until the context is canceled
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Str("addr", s.config.Addr).Msg("Starting ops server")

	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.server = server

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("Shutting down ops server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Status        string `json:"status"`
		EndpointState string `json:"endpoint_state"`
	}{
		Status:        "ok",
		EndpointState: s.bridge.State().String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode health response")
	}
}
