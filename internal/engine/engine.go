package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/presenceio/rosterbridge/internal/bridge"
	"github.com/presenceio/rosterbridge/internal/channel"
	"github.com/presenceio/rosterbridge/internal/config"
	"github.com/presenceio/rosterbridge/internal/server"
	"github.com/presenceio/rosterbridge/internal/telemetry"
	"github.com/presenceio/rosterbridge/pkg/roster"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Engine composes the bridge components: the roster source, the
// subscription endpoint, the outbound channel and the ops server
type Engine struct {
	config      *config.Config
	source      *roster.Broker
	endpoint    *bridge.Endpoint
	channel     channel.Outbound
	server      *server.Server
	logger      zerolog.Logger
	telemetryFn func(context.Context) error
}

// New creates an engine with all components wired from the config
func New(cfg *config.Config) (*Engine, error) {
	ch, err := channel.New(cfg.ToChannelConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create outbound channel: %w", err)
	}

	source := roster.NewBroker()
	endpoint := bridge.New(source)
	if err := endpoint.SetChannel(ch); err != nil {
		return nil, err
	}
	if err := endpoint.Init(); err != nil {
		return nil, err
	}

	return &Engine{
		config:   cfg,
		source:   source,
		endpoint: endpoint,
		channel:  ch,
		server:   server.New(cfg.ToServerConfig(), endpoint),
		logger:   log.With().Str("component", "engine").Logger(),
	}, nil
}

// Source returns the in-process roster broker. Embedding applications
// feed presence session events into it.
func (e *Engine) Source() *roster.Broker {
	return e.source
}

// Channel returns the outbound channel for in-process consumers
func (e *Engine) Channel() channel.Outbound {
	return e.channel
}

// Endpoint returns the subscription endpoint
func (e *Engine) Endpoint() *bridge.Endpoint {
	return e.endpoint
}

// Run starts all components and blocks until the context is canceled or
// a termination signal arrives
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, e.config.ToTelemetryConfig())
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	e.telemetryFn = shutdownTelemetry

	if err := e.endpoint.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.server.Start(ctx)
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			e.logger.Info().Str("signal", sig.String()).Msg("Received termination signal")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	e.logger.Info().Msg("Engine running")
	err = g.Wait()

	if shutdownErr := e.Shutdown(context.Background()); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// Shutdown stops all components in reverse dependency order
func (e *Engine) Shutdown(ctx context.Context) error {
	e.logger.Info().Msg("Shutting down engine")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var firstErr error

	if err := e.endpoint.Stop(); err != nil {
		firstErr = err
	}
	if err := e.server.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.channel.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if e.telemetryFn != nil {
		if err := e.telemetryFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
