package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/presenceio/rosterbridge/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds Redis channel configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string

	// Password is the optional Redis password
	Password string

	// DB is the Redis database number
	DB int

	// Stream is the Redis stream key messages are appended to
	Stream string

	// MaxLen caps the stream length (approximate trimming); 0 disables
	MaxLen int64
}

// DefaultRedisConfig returns a default configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Stream: "rosterbridge:events",
		MaxLen: 100000,
	}
}

// Redis publishes messages onto a Redis stream for downstream consumers
type Redis struct {
	client  *redis.Client
	config  RedisConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRedis creates a Redis-backed channel and verifies connectivity
func NewRedis(config RedisConfig) (*Redis, error) {
	if config.Addr == "" {
		config.Addr = DefaultRedisConfig().Addr
	}
	if config.Stream == "" {
		config.Stream = DefaultRedisConfig().Stream
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := log.With().Str("component", "channel-redis").Logger()
	logger.Info().
		Str("addr", config.Addr).
		Str("stream", config.Stream).
		Int("db", config.DB).
		Msg("Connected to Redis channel")

	return &Redis{
		client:  client,
		config:  config,
		logger:  logger,
		metrics: metrics.GetMetrics(),
	}, nil
}

// Send appends the message to the configured stream as a JSON payload
func (c *Redis) Send(ctx context.Context, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		// Serialization is an adapter concern, not a messaging failure
		return fmt.Errorf("marshal message %s: %w", msg.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: c.config.Stream,
		Values: map[string]interface{}{
			"message": data,
		},
	}
	if c.config.MaxLen > 0 {
		args.MaxLen = c.config.MaxLen
		args.Approx = true
	}

	if err := c.client.XAdd(ctx, args).Err(); err != nil {
		c.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Redis publish failed")
		c.metrics.PublishErrors.WithLabelValues("redis", "io").Inc()
		return &MessagingError{Op: "xadd", Err: err}
	}

	c.metrics.MessagesPublished.WithLabelValues("redis").Inc()
	return nil
}

// HealthCheck verifies the Redis connection is alive
func (c *Redis) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Redis) Close() error {
	return c.client.Close()
}
