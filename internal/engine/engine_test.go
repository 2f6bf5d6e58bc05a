package engine

import (
	"context"
	"testing"
	"time"

	"github.com/presenceio/rosterbridge/internal/bridge"
	"github.com/presenceio/rosterbridge/internal/channel"
	"github.com/presenceio/rosterbridge/internal/config"
	"github.com/presenceio/rosterbridge/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineWiring(t *testing.T) {
	eng, err := New(config.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, eng.Source())
	assert.NotNil(t, eng.Channel())
	assert.Equal(t, bridge.Initialized, eng.Endpoint().State())
}

func TestEngineEndToEnd(t *testing.T) {
	eng, err := New(config.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, eng.Endpoint().Start())

	err = eng.Source().DeliverEntriesAdded(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	mem, ok := eng.Channel().(*channel.Memory)
	require.True(t, ok)

	select {
	case msg := <-mem.Receive():
		assert.Equal(t, roster.EntriesAdded{JIDs: []string{"alice", "bob"}}, msg.Event)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for message")
	}

	require.NoError(t, eng.Shutdown(context.Background()))
	assert.Equal(t, bridge.Stopped, eng.Endpoint().State())
}

func TestEngineRejectsBadChannelBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Channel.Backend = "carrier-pigeon"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown channel backend")
}
