package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/presenceio/rosterbridge/internal/channel"
	"github.com/presenceio/rosterbridge/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingChannel returns a fixed error from every send
type failingChannel struct {
	err error
}

func (c *failingChannel) Send(ctx context.Context, msg *channel.Message) error {
	return c.err
}

func (c *failingChannel) Close() error {
	return nil
}

// Helper to build a started endpoint wired to a broker and memory channel
func startedEndpoint(t *testing.T) (*Endpoint, *roster.Broker, *channel.Memory) {
	t.Helper()

	broker := roster.NewBroker()
	ch := channel.NewMemory(channel.MemoryConfig{BufferSize: 16})

	ep := New(broker)
	require.NoError(t, ep.SetChannel(ch))
	require.NoError(t, ep.Init())
	require.NoError(t, ep.Start())

	return ep, broker, ch
}

// receiveOne reads a single message or fails the test
func receiveOne(t *testing.T, ch *channel.Memory) *channel.Message {
	t.Helper()

	select {
	case msg := <-ch.Receive():
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for message")
		return nil
	}
}

// assertEmpty verifies no message is pending on the channel
func assertEmpty(t *testing.T, ch *channel.Memory) {
	t.Helper()

	select {
	case msg := <-ch.Receive():
		t.Fatalf("Unexpected message received: %v", msg)
	case <-time.After(50 * time.Millisecond):
		// Expected case - channel is empty
	}
}

func TestEndpointStartBeforeInit(t *testing.T) {
	broker := roster.NewBroker()
	ch := channel.NewMemory()

	ep := New(broker)
	require.NoError(t, ep.SetChannel(ch))

	err := ep.Start()
	require.Error(t, err)

	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "start", stateErr.Op)
	assert.Equal(t, Uninitialized, stateErr.State)

	// State unchanged, nothing registered, no messages
	assert.Equal(t, Uninitialized, ep.State())
	assert.Equal(t, 0, broker.ListenerCount())
	assertEmpty(t, ch)
}

func TestEndpointInitWithoutChannel(t *testing.T) {
	ep := New(roster.NewBroker())

	err := ep.Init()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, Uninitialized, ep.State())
}

func TestEndpointInitWithoutSource(t *testing.T) {
	ep := New(nil)
	require.NoError(t, ep.SetChannel(channel.NewMemory()))

	err := ep.Init()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, Uninitialized, ep.State())
}

func TestEndpointInitIsIdempotent(t *testing.T) {
	ep := New(roster.NewBroker())
	require.NoError(t, ep.SetChannel(channel.NewMemory()))

	require.NoError(t, ep.Init())
	require.NoError(t, ep.Init())
	assert.Equal(t, Initialized, ep.State())
}

func TestEndpointSetChannelAfterInit(t *testing.T) {
	ch := channel.NewMemory()
	ep := New(roster.NewBroker())
	require.NoError(t, ep.SetChannel(ch))
	require.NoError(t, ep.Init())

	// Rebinding the same channel is allowed
	require.NoError(t, ep.SetChannel(ch))

	// Swapping the channel after init is a configuration error
	err := ep.SetChannel(channel.NewMemory())
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestEndpointLifecycleCycle(t *testing.T) {
	ep, broker, _ := startedEndpoint(t)

	assert.Equal(t, Started, ep.State())
	assert.Equal(t, 1, broker.ListenerCount())

	require.NoError(t, ep.Stop())
	assert.Equal(t, Stopped, ep.State())
	assert.Equal(t, 0, broker.ListenerCount())

	// Restart after stop
	require.NoError(t, ep.Start())
	assert.Equal(t, Started, ep.State())
	assert.Equal(t, 1, broker.ListenerCount())

	require.NoError(t, ep.Stop())
	assert.Equal(t, Stopped, ep.State())
}

func TestEndpointDoubleStart(t *testing.T) {
	ep, broker, _ := startedEndpoint(t)

	err := ep.Start()
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, Started, stateErr.State)

	// Still started, still registered exactly once
	assert.Equal(t, Started, ep.State())
	assert.Equal(t, 1, broker.ListenerCount())
}

func TestEndpointStopWithoutStart(t *testing.T) {
	broker := roster.NewBroker()
	ep := New(broker)
	require.NoError(t, ep.SetChannel(channel.NewMemory()))
	require.NoError(t, ep.Init())

	require.NoError(t, ep.Stop())
	assert.Equal(t, Initialized, ep.State())
	assert.Equal(t, 0, broker.ListenerCount())

	// Stop on a fresh endpoint is also a no-op
	fresh := New(broker)
	require.NoError(t, fresh.Stop())
	assert.Equal(t, Uninitialized, fresh.State())
}

func TestEndpointForwardsEntriesAdded(t *testing.T) {
	_, broker, ch := startedEndpoint(t)

	err := broker.DeliverEntriesAdded(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	msg := receiveOne(t, ch)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, roster.EntriesAdded{JIDs: []string{"alice", "bob"}}, msg.Event)

	assertEmpty(t, ch)
}

func TestEndpointForwardsAllVariants(t *testing.T) {
	_, broker, ch := startedEndpoint(t)
	ctx := context.Background()

	priority := 5
	presence := roster.Presence{
		JID:          "alice@example.org",
		Availability: roster.Away,
		Status:       "brb",
		Priority:     &priority,
	}

	require.NoError(t, broker.DeliverEntriesAdded(ctx, []string{"a@x"}))
	require.NoError(t, broker.DeliverEntriesUpdated(ctx, []string{"b@x"}))
	require.NoError(t, broker.DeliverEntriesDeleted(ctx, []string{"c@x"}))
	require.NoError(t, broker.DeliverPresenceChanged(ctx, presence))

	expected := []roster.Event{
		roster.EntriesAdded{JIDs: []string{"a@x"}},
		roster.EntriesUpdated{JIDs: []string{"b@x"}},
		roster.EntriesDeleted{JIDs: []string{"c@x"}},
		roster.PresenceChanged{Presence: presence},
	}

	for _, want := range expected {
		msg := receiveOne(t, ch)
		assert.Equal(t, want, msg.Event)
	}
	assertEmpty(t, ch)
}

func TestEndpointForwardsPresenceChange(t *testing.T) {
	_, broker, ch := startedEndpoint(t)

	err := broker.DeliverPresenceChanged(context.Background(), roster.Presence{
		JID:          "alice",
		Availability: roster.Away,
	})
	require.NoError(t, err)

	msg := receiveOne(t, ch)
	pc, ok := msg.Event.(roster.PresenceChanged)
	require.True(t, ok)
	assert.Equal(t, "alice", pc.Presence.JID)
	assert.Equal(t, roster.Away, pc.Presence.Availability)
	assert.Nil(t, pc.Presence.Priority)
}

func TestEndpointPropagatesMessagingError(t *testing.T) {
	broker := roster.NewBroker()
	sendErr := &channel.MessagingError{Op: "send", Err: channel.ErrFull}

	ep := New(broker)
	require.NoError(t, ep.SetChannel(&failingChannel{err: sendErr}))
	require.NoError(t, ep.Init())
	require.NoError(t, ep.Start())

	err := broker.DeliverEntriesAdded(context.Background(), []string{"alice"})
	require.Error(t, err)

	// The messaging error must arrive unchanged, not wrapped
	assert.Same(t, error(sendErr), err)
	var fwdErr *ForwardingError
	assert.False(t, errors.As(err, &fwdErr))
}

func TestEndpointWrapsOtherSendFailures(t *testing.T) {
	broker := roster.NewBroker()
	cause := errors.New("serialization exploded")

	ep := New(broker)
	require.NoError(t, ep.SetChannel(&failingChannel{err: cause}))
	require.NoError(t, ep.Init())
	require.NoError(t, ep.Start())

	err := broker.DeliverEntriesUpdated(context.Background(), []string{"alice"})
	require.Error(t, err)

	var fwdErr *ForwardingError
	require.ErrorAs(t, err, &fwdErr)
	assert.Equal(t, roster.EntriesUpdated{JIDs: []string{"alice"}}, fwdErr.Event)
	assert.ErrorIs(t, err, cause)
}

func TestEndpointStopPreventsDelivery(t *testing.T) {
	ep, broker, ch := startedEndpoint(t)

	require.NoError(t, broker.DeliverEntriesAdded(context.Background(), []string{"alice"}))
	receiveOne(t, ch)

	require.NoError(t, ep.Stop())

	// The broker only delivers to registered listeners; after Stop the
	// event must not reach the channel
	require.NoError(t, broker.DeliverEntriesAdded(context.Background(), []string{"bob"}))
	assertEmpty(t, ch)
}

func TestEndpointConcurrentForwards(t *testing.T) {
	_, broker, ch := startedEndpoint(t)
	ctx := context.Background()

	const goroutines = 8
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(n int) {
			defer wg.Done()
			jid := fmt.Sprintf("user-%d@example.org", n)
			assert.NoError(t, broker.DeliverEntriesAdded(ctx, []string{jid}))
		}(i)
	}
	wg.Wait()

	// Ordering is not guaranteed across concurrent deliveries; count only
	received := make(map[string]bool)
	for i := 0; i < goroutines; i++ {
		msg := receiveOne(t, ch)
		added, ok := msg.Event.(roster.EntriesAdded)
		require.True(t, ok)
		received[added.JIDs[0]] = true
	}
	assert.Len(t, received, goroutines)
	assertEmpty(t, ch)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "initialized", Initialized.String())
	assert.Equal(t, "started", Started.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", State(42).String())
}
