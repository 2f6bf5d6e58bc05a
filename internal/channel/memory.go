package channel

import (
	"context"
	"sync"

	"github.com/presenceio/rosterbridge/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MemoryConfig contains in-memory channel configuration
type MemoryConfig struct {
	// Maximum number of buffered messages
	BufferSize int
}

// DefaultMemoryConfig returns a default configuration
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		BufferSize: 256,
	}
}

// Memory is a bounded in-process channel for embedding and tests. A full
// buffer rejects the send with a *MessagingError wrapping ErrFull rather
// than blocking the source's delivery goroutine.
type Memory struct {
	messages chan *Message
	closed   bool
	mu       sync.Mutex
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewMemory creates an in-memory channel
func NewMemory(config ...MemoryConfig) *Memory {
	var cfg MemoryConfig
	if len(config) > 0 {
		cfg = config[0]
	} else {
		cfg = DefaultMemoryConfig()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultMemoryConfig().BufferSize
	}

	return &Memory{
		messages: make(chan *Message, cfg.BufferSize),
		logger:   log.With().Str("component", "channel-memory").Logger(),
		metrics:  metrics.GetMetrics(),
	}
}

// Send enqueues the message, failing fast when the buffer is full
func (c *Memory) Send(ctx context.Context, msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.metrics.PublishErrors.WithLabelValues("memory", "closed").Inc()
		return &MessagingError{Op: "send", Err: ErrClosed}
	}

	if err := ctx.Err(); err != nil {
		c.metrics.PublishErrors.WithLabelValues("memory", "io").Inc()
		return &MessagingError{Op: "send", Err: err}
	}

	select {
	case c.messages <- msg:
		c.metrics.MessagesPublished.WithLabelValues("memory").Inc()
		c.metrics.MemoryQueueDepth.Set(float64(len(c.messages)))
		return nil
	default:
		c.logger.Warn().
			Str("message_id", msg.ID).
			Str("kind", string(msg.Event.Kind())).
			Msg("Channel buffer full, rejecting message")
		c.metrics.PublishErrors.WithLabelValues("memory", "full").Inc()
		return &MessagingError{Op: "send", Err: ErrFull}
	}
}

// Receive returns the stream of published messages. The stream is closed
// by Close.
func (c *Memory) Receive() <-chan *Message {
	return c.messages
}

// Close closes the message stream. Safe to call more than once.
func (c *Memory) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.messages)
	return nil
}
