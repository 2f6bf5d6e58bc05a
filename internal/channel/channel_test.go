package channel

import (
	"encoding/json"
	"testing"

	"github.com/presenceio/rosterbridge/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageAssignsMetadata(t *testing.T) {
	msg, err := NewMessage(roster.EntriesAdded{JIDs: []string{"alice"}})
	require.NoError(t, err)

	assert.Contains(t, msg.ID, "test-message-id")
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, roster.KindEntriesAdded, msg.Event.Kind())
}

func TestNewMessageRejectsNilEvent(t *testing.T) {
	msg, err := NewMessage(nil)
	require.Error(t, err)
	assert.Nil(t, msg)
}

func TestMessageJSONRoundTrip(t *testing.T) {
	priority := 10
	msg, err := NewMessage(roster.PresenceChanged{
		Presence: roster.Presence{
			JID:          "alice@example.org",
			Availability: roster.DoNotDisturb,
			Status:       "in a meeting",
			Priority:     &priority,
		},
	})
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"presence_changed"`)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Event, decoded.Event)
	assert.True(t, msg.Timestamp.Equal(decoded.Timestamp))
}

func TestMessageJSONCollectionVariant(t *testing.T) {
	msg, err := NewMessage(roster.EntriesDeleted{JIDs: []string{"a@x", "b@x"}})
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	deleted, ok := decoded.Event.(roster.EntriesDeleted)
	require.True(t, ok)
	assert.Equal(t, []string{"a@x", "b@x"}, deleted.JIDs)
}

func TestMessageUnmarshalUnknownKind(t *testing.T) {
	var decoded Message
	err := json.Unmarshal([]byte(`{"id":"x","kind":"bogus","event":{}}`), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event kind")
}
