package bridge

import (
	"fmt"

	"github.com/presenceio/rosterbridge/pkg/roster"
)

// ConfigError signals that the endpoint is missing a required
// collaborator or was reconfigured after initialization. Never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "bridge: invalid configuration: " + e.Reason
}

// StateError signals a lifecycle verb invoked in a state that does not
// permit it. The call leaves the endpoint state unchanged.
type StateError struct {
	// Op is the lifecycle verb that was rejected
	Op string

	// State is the endpoint state at the time of the call
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("bridge: cannot %s endpoint in state %s", e.Op, e.State)
}

// ForwardingError wraps any failure while building or sending the
// outbound message that is not a messaging-layer failure. It carries the
// original event so the delivery context can log or escalate it.
type ForwardingError struct {
	// Event is the roster event that could not be forwarded
	Event roster.Event

	// Err is the underlying cause
	Err error
}

func (e *ForwardingError) Error() string {
	return fmt.Sprintf("bridge: failed to forward roster event: %v", e.Err)
}

func (e *ForwardingError) Unwrap() error {
	return e.Err
}
