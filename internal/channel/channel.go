package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/presenceio/rosterbridge/pkg/roster"
)

// Outbound is the destination abstraction the bridge publishes to.
// Send is synchronous and may block on the backend's own semantics; the
// bridge imposes no timeout of its own.
type Outbound interface {
	// Send publishes a message. Failures of the messaging layer are
	// reported as *MessagingError.
	Send(ctx context.Context, msg *Message) error

	// Close releases the channel's resources. Sends after Close fail
	// with *MessagingError wrapping ErrClosed.
	Close() error
}

var (
	// ErrFull signals that a bounded channel rejected a message
	ErrFull = errors.New("channel buffer full")

	// ErrClosed signals a send on a closed channel
	ErrClosed = errors.New("channel closed")
)

// MessagingError is a failure of the messaging layer itself, as opposed
// to a failure while building or adapting a message. The bridge
// propagates it unchanged so callers can apply their own retry policy.
type MessagingError struct {
	// Op is the channel operation that failed
	Op string

	// Err is the underlying cause
	Err error
}

func (e *MessagingError) Error() string {
	return fmt.Sprintf("channel: %s: %v", e.Op, e.Err)
}

func (e *MessagingError) Unwrap() error {
	return e.Err
}

// Message is the immutable envelope carrying a roster event to
// downstream consumers
type Message struct {
	// ID is a unique message identifier assigned at construction
	ID string

	// Timestamp is the construction time
	Timestamp time.Time

	// Event is the wrapped roster event, preserved as delivered
	Event roster.Event
}

// Variable for generating unique message IDs
// Can be replaced in tests for deterministic behavior
var generateID = func() string {
	return uuid.NewString()
}

// NewMessage builds a message wrapping the given event
func NewMessage(event roster.Event) (*Message, error) {
	if event == nil {
		return nil, errors.New("channel: nil event")
	}
	switch event.Kind() {
	case roster.KindEntriesAdded, roster.KindEntriesUpdated,
		roster.KindEntriesDeleted, roster.KindPresenceChanged:
	default:
		return nil, fmt.Errorf("channel: unknown event kind %q", event.Kind())
	}
	return &Message{
		ID:        generateID(),
		Timestamp: time.Now().UTC(),
		Event:     event,
	}, nil
}

// envelope is the wire form of a Message
type envelope struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"ts"`
	Kind      roster.EventKind `json:"kind"`
	Event     json.RawMessage  `json:"event"`
}

// MarshalJSON encodes the message with an explicit kind tag so consumers
// can decode the variant without runtime type inspection
func (m *Message) MarshalJSON() ([]byte, error) {
	ev, err := json.Marshal(m.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Kind:      m.Event.Kind(),
		Event:     ev,
	})
}

// UnmarshalJSON decodes the envelope, selecting the event variant by its
// kind tag
func (m *Message) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var event roster.Event
	switch env.Kind {
	case roster.KindEntriesAdded:
		var ev roster.EntriesAdded
		if err := json.Unmarshal(env.Event, &ev); err != nil {
			return err
		}
		event = ev
	case roster.KindEntriesUpdated:
		var ev roster.EntriesUpdated
		if err := json.Unmarshal(env.Event, &ev); err != nil {
			return err
		}
		event = ev
	case roster.KindEntriesDeleted:
		var ev roster.EntriesDeleted
		if err := json.Unmarshal(env.Event, &ev); err != nil {
			return err
		}
		event = ev
	case roster.KindPresenceChanged:
		var ev roster.PresenceChanged
		if err := json.Unmarshal(env.Event, &ev); err != nil {
			return err
		}
		event = ev
	default:
		return fmt.Errorf("channel: unknown event kind %q", env.Kind)
	}

	m.ID = env.ID
	m.Timestamp = env.Timestamp
	m.Event = event
	return nil
}
