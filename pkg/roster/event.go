package roster

import (
	"fmt"
	"strings"
)

// EventKind identifies a roster event variant
type EventKind string

const (
	KindEntriesAdded    EventKind = "entries_added"
	KindEntriesUpdated  EventKind = "entries_updated"
	KindEntriesDeleted  EventKind = "entries_deleted"
	KindPresenceChanged EventKind = "presence_changed"
)

// Availability is a contact's advertised availability state
type Availability string

const (
	Available    Availability = "available"
	Chat         Availability = "chat"
	Away         Availability = "away"
	ExtendedAway Availability = "xa"
	DoNotDisturb Availability = "dnd"
	Unavailable  Availability = "unavailable"
)

// Presence is a snapshot of a single contact's availability
type Presence struct {
	// JID identifies the contact
	JID string `json:"jid"`

	// Availability is the contact's current availability state
	Availability Availability `json:"availability"`

	// Status is optional free-text status
	Status string `json:"status,omitempty"`

	// Priority is the optional presence priority, nil when the
	// contact did not advertise one
	Priority *int `json:"priority,omitempty"`
}

// String returns a structural dump of the presence snapshot
func (p Presence) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "presence{jid=%s availability=%s", p.JID, p.Availability)
	if p.Status != "" {
		fmt.Fprintf(&b, " status=%q", p.Status)
	}
	if p.Priority != nil {
		fmt.Fprintf(&b, " priority=%d", *p.Priority)
	}
	b.WriteString("}")
	return b.String()
}

// Event is a roster change notification. The variant set is closed:
// EntriesAdded, EntriesUpdated, EntriesDeleted and PresenceChanged are
// the only implementations, so consumers can type-switch exhaustively.
type Event interface {
	// Kind returns the variant tag
	Kind() EventKind

	// Summary returns a short human-readable description of the event
	Summary() string
}

// EntriesAdded signals contacts added to the roster
type EntriesAdded struct {
	JIDs []string `json:"jids"`
}

// EntriesUpdated signals contacts whose roster entry changed
type EntriesUpdated struct {
	JIDs []string `json:"jids"`
}

// EntriesDeleted signals contacts removed from the roster
type EntriesDeleted struct {
	JIDs []string `json:"jids"`
}

// PresenceChanged signals a single contact's presence update
type PresenceChanged struct {
	Presence Presence `json:"presence"`
}

func (EntriesAdded) Kind() EventKind    { return KindEntriesAdded }
func (EntriesUpdated) Kind() EventKind  { return KindEntriesUpdated }
func (EntriesDeleted) Kind() EventKind  { return KindEntriesDeleted }
func (PresenceChanged) Kind() EventKind { return KindPresenceChanged }

func (e EntriesAdded) Summary() string {
	return "entries added: " + strings.Join(e.JIDs, ",")
}

func (e EntriesUpdated) Summary() string {
	return "entries updated: " + strings.Join(e.JIDs, ",")
}

func (e EntriesDeleted) Summary() string {
	return "entries deleted: " + strings.Join(e.JIDs, ",")
}

func (e PresenceChanged) Summary() string {
	return "presence changed: " + e.Presence.String()
}
