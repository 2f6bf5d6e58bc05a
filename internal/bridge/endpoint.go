package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/presenceio/rosterbridge/internal/channel"
	"github.com/presenceio/rosterbridge/internal/metrics"
	"github.com/presenceio/rosterbridge/internal/telemetry"
	"github.com/presenceio/rosterbridge/pkg/roster"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State is the endpoint lifecycle state
type State int

const (
	Uninitialized State = iota
	Initialized
	Started
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Ensure the listener satisfies the roster capability
var _ roster.Listener = (*forwardingListener)(nil)

// Endpoint bridges roster change notifications into an outbound channel.
// Lifecycle: SetChannel, Init, then Start/Stop any number of times.
// Forwarding happens on the roster source's delivery goroutines and is
// safe for concurrent invocation; Start and Stop are mutually excluded.
//
// An in-flight forward racing Stop completes best-effort: Stop only
// prevents deliveries that begin after deregistration returns.
type Endpoint struct {
	mu         sync.Mutex
	state      State
	registered bool

	source   roster.Source
	channel  channel.Outbound
	listener *forwardingListener

	logger  zerolog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New creates an endpoint bound to the given roster source. The source
// may be nil for deferred wiring; Init fails until it is set.
func New(source roster.Source) *Endpoint {
	return &Endpoint{
		source:  source,
		logger:  log.With().Str("component", "bridge").Logger(),
		metrics: metrics.GetMetrics(),
		tracer:  telemetry.Tracer("rosterbridge/bridge"),
	}
}

// SetChannel configures the outbound channel. Must be called before
// Init; the reference is immutable once initialization completes.
func (e *Endpoint) SetChannel(ch channel.Outbound) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Uninitialized && ch != e.channel {
		return &ConfigError{Reason: "channel cannot be changed after initialization"}
	}
	e.channel = ch
	return nil
}

// Init validates configuration, binds the channel as the default
// destination for forwarded messages and transitions to Initialized.
// Re-Init after a successful Init is a no-op.
func (e *Endpoint) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Uninitialized {
		return nil
	}
	if e.source == nil {
		return &ConfigError{Reason: "no roster source"}
	}
	if e.channel == nil {
		return &ConfigError{Reason: "no outbound channel"}
	}

	e.listener = &forwardingListener{
		endpoint: e,
		logger:   e.logger.With().Str("component", "bridge-listener").Logger(),
	}
	e.setState(Initialized)
	e.logger.Info().Msg("Endpoint initialized")
	return nil
}

// Start registers the forwarding listener with the roster source. Valid
// only from Initialized or Stopped. The registered flag guards against
// double registration.
func (e *Endpoint) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Initialized && e.state != Stopped {
		return &StateError{Op: "start", State: e.state}
	}

	if !e.registered {
		e.source.AddListener(e.listener)
		e.registered = true
		e.metrics.ListenersActive.Inc()
	}
	e.setState(Started)
	e.logger.Info().Msg("Endpoint started, listener registered with roster source")
	return nil
}

// Stop deregisters the listener. Safe to call from any state; calling
// it on an endpoint that never started is a no-op.
func (e *Endpoint) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registered {
		e.source.RemoveListener(e.listener)
		e.registered = false
		e.metrics.ListenersActive.Dec()
	}
	if e.state == Started {
		e.setState(Stopped)
		e.logger.Info().Msg("Endpoint stopped, listener deregistered")
	}
	return nil
}

// State returns the current lifecycle state
func (e *Endpoint) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// setState records a transition; callers hold e.mu
func (e *Endpoint) setState(s State) {
	e.state = s
	e.metrics.EndpointState.Set(float64(s))
}

// forward wraps the event into a message and sends it to the configured
// channel. Messaging-layer failures propagate unchanged; anything else
// is wrapped into a *ForwardingError carrying the original event.
func (e *Endpoint) forward(ctx context.Context, event roster.Event) error {
	kind := string(event.Kind())
	ctx, span := e.tracer.Start(ctx, "bridge.forward",
		trace.WithAttributes(attribute.String("event.kind", kind)))
	defer span.End()

	start := time.Now()

	msg, err := channel.NewMessage(event)
	if err != nil {
		span.RecordError(err)
		e.metrics.ForwardErrors.WithLabelValues(kind, "forwarding").Inc()
		return &ForwardingError{Event: event, Err: err}
	}

	if err := e.channel.Send(ctx, msg); err != nil {
		span.RecordError(err)
		var merr *channel.MessagingError
		if errors.As(err, &merr) {
			e.metrics.ForwardErrors.WithLabelValues(kind, "messaging").Inc()
			return err
		}
		e.metrics.ForwardErrors.WithLabelValues(kind, "forwarding").Inc()
		return &ForwardingError{Event: event, Err: err}
	}

	e.metrics.EventsForwarded.WithLabelValues(kind).Inc()
	e.metrics.ForwardDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	return nil
}

// forwardingListener subscribes to roster events and forwards each one
// to the endpoint's channel, wrapped in its tagged variant
type forwardingListener struct {
	endpoint *Endpoint
	logger   zerolog.Logger
}

func (l *forwardingListener) EntriesAdded(ctx context.Context, jids []string) error {
	l.logger.Debug().Str("jids", strings.Join(jids, ",")).Msg("Entries added")
	return l.endpoint.forward(ctx, roster.EntriesAdded{JIDs: jids})
}

func (l *forwardingListener) EntriesUpdated(ctx context.Context, jids []string) error {
	l.logger.Debug().Str("jids", strings.Join(jids, ",")).Msg("Entries updated")
	return l.endpoint.forward(ctx, roster.EntriesUpdated{JIDs: jids})
}

func (l *forwardingListener) EntriesDeleted(ctx context.Context, jids []string) error {
	l.logger.Debug().Str("jids", strings.Join(jids, ",")).Msg("Entries deleted")
	return l.endpoint.forward(ctx, roster.EntriesDeleted{JIDs: jids})
}

func (l *forwardingListener) PresenceChanged(ctx context.Context, presence roster.Presence) error {
	l.logger.Debug().Stringer("presence", presence).Msg("Presence changed")
	return l.endpoint.forward(ctx, roster.PresenceChanged{Presence: presence})
}
