package roster

import "context"

// Listener receives roster change notifications from a Source. The four
// entry points mirror the variants of Event. Delivery happens on whatever
// goroutine the source uses, possibly concurrently, so implementations
// must be safe for concurrent invocation. A non-nil error returned from an
// entry point is surfaced to the source's delivery context; listeners
// perform no error handling of their own.
type Listener interface {
	// EntriesAdded is invoked when contacts are added to the roster
	EntriesAdded(ctx context.Context, jids []string) error

	// EntriesUpdated is invoked when roster entries change
	EntriesUpdated(ctx context.Context, jids []string) error

	// EntriesDeleted is invoked when contacts are removed from the roster
	EntriesDeleted(ctx context.Context, jids []string) error

	// PresenceChanged is invoked on a single contact's presence update
	PresenceChanged(ctx context.Context, presence Presence) error
}

// Source is the registration API of a roster/presence subsystem. Listener
// registration is set-like: adding an already registered listener is a
// no-op, as is removing one that is not registered.
type Source interface {
	// AddListener registers a listener for future roster events
	AddListener(l Listener)

	// RemoveListener deregisters a listener; events delivered after
	// RemoveListener returns will not reach it
	RemoveListener(l Listener)
}
