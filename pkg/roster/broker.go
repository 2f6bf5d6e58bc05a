package roster

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Broker is an in-process Source implementation. It keeps a registry of
// listeners and fans each delivered event out to all of them. Applications
// embedding the bridge feed it from their own presence session; tests use
// it as a stand-in for an external roster subsystem.
type Broker struct {
	mu        sync.RWMutex
	listeners map[Listener]struct{}
	logger    zerolog.Logger
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{
		listeners: make(map[Listener]struct{}),
		logger:    log.With().Str("component", "roster-broker").Logger(),
	}
}

// AddListener registers a listener. Registration is idempotent.
func (b *Broker) AddListener(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[l] = struct{}{}
	b.logger.Debug().Int("listeners", len(b.listeners)).Msg("Listener registered")
}

// RemoveListener deregisters a listener. No delivery started after
// RemoveListener returns will reach it.
func (b *Broker) RemoveListener(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, l)
	b.logger.Debug().Int("listeners", len(b.listeners)).Msg("Listener deregistered")
}

// ListenerCount returns the number of registered listeners
func (b *Broker) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// snapshot copies the registry so delivery does not hold the lock
func (b *Broker) snapshot() []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ls := make([]Listener, 0, len(b.listeners))
	for l := range b.listeners {
		ls = append(ls, l)
	}
	return ls
}

// DeliverEntriesAdded notifies all registered listeners of added entries.
// Delivery stops at the first listener error, which is returned.
func (b *Broker) DeliverEntriesAdded(ctx context.Context, jids []string) error {
	for _, l := range b.snapshot() {
		if err := l.EntriesAdded(ctx, jids); err != nil {
			return err
		}
	}
	return nil
}

// DeliverEntriesUpdated notifies all registered listeners of updated entries
func (b *Broker) DeliverEntriesUpdated(ctx context.Context, jids []string) error {
	for _, l := range b.snapshot() {
		if err := l.EntriesUpdated(ctx, jids); err != nil {
			return err
		}
	}
	return nil
}

// DeliverEntriesDeleted notifies all registered listeners of deleted entries
func (b *Broker) DeliverEntriesDeleted(ctx context.Context, jids []string) error {
	for _, l := range b.snapshot() {
		if err := l.EntriesDeleted(ctx, jids); err != nil {
			return err
		}
	}
	return nil
}

// DeliverPresenceChanged notifies all registered listeners of a presence update
func (b *Broker) DeliverPresenceChanged(ctx context.Context, presence Presence) error {
	for _, l := range b.snapshot() {
		if err := l.PresenceChanged(ctx, presence); err != nil {
			return err
		}
	}
	return nil
}
