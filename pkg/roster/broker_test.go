package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener captures every delivered event
type recordingListener struct {
	events []Event
	err    error
}

func (l *recordingListener) EntriesAdded(ctx context.Context, jids []string) error {
	l.events = append(l.events, EntriesAdded{JIDs: jids})
	return l.err
}

func (l *recordingListener) EntriesUpdated(ctx context.Context, jids []string) error {
	l.events = append(l.events, EntriesUpdated{JIDs: jids})
	return l.err
}

func (l *recordingListener) EntriesDeleted(ctx context.Context, jids []string) error {
	l.events = append(l.events, EntriesDeleted{JIDs: jids})
	return l.err
}

func (l *recordingListener) PresenceChanged(ctx context.Context, presence Presence) error {
	l.events = append(l.events, PresenceChanged{Presence: presence})
	return l.err
}

func TestBrokerAddListenerIdempotent(t *testing.T) {
	broker := NewBroker()
	l := &recordingListener{}

	broker.AddListener(l)
	broker.AddListener(l)
	assert.Equal(t, 1, broker.ListenerCount())

	broker.AddListener(nil)
	assert.Equal(t, 1, broker.ListenerCount())
}

func TestBrokerRemoveListener(t *testing.T) {
	broker := NewBroker()
	l := &recordingListener{}

	broker.AddListener(l)
	broker.RemoveListener(l)
	assert.Equal(t, 0, broker.ListenerCount())

	// Removing an unregistered listener is a no-op
	broker.RemoveListener(l)
	assert.Equal(t, 0, broker.ListenerCount())
}

func TestBrokerDeliversToAllListeners(t *testing.T) {
	broker := NewBroker()
	l1 := &recordingListener{}
	l2 := &recordingListener{}
	broker.AddListener(l1)
	broker.AddListener(l2)

	ctx := context.Background()
	require.NoError(t, broker.DeliverEntriesAdded(ctx, []string{"alice"}))
	require.NoError(t, broker.DeliverPresenceChanged(ctx, Presence{JID: "bob", Availability: Available}))

	for _, l := range []*recordingListener{l1, l2} {
		require.Len(t, l.events, 2)
		assert.Equal(t, EntriesAdded{JIDs: []string{"alice"}}, l.events[0])
		assert.Equal(t, PresenceChanged{Presence: Presence{JID: "bob", Availability: Available}}, l.events[1])
	}
}

func TestBrokerSkipsRemovedListener(t *testing.T) {
	broker := NewBroker()
	l := &recordingListener{}
	broker.AddListener(l)
	broker.RemoveListener(l)

	require.NoError(t, broker.DeliverEntriesDeleted(context.Background(), []string{"alice"}))
	assert.Empty(t, l.events)
}

func TestBrokerReturnsListenerError(t *testing.T) {
	broker := NewBroker()
	cause := errors.New("forward failed")
	broker.AddListener(&recordingListener{err: cause})

	err := broker.DeliverEntriesUpdated(context.Background(), []string{"alice"})
	assert.ErrorIs(t, err, cause)
}
