package channel

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Backend selection values
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures the outbound channel backend
type Config struct {
	// Backend is "memory" or "redis"
	Backend string

	Memory MemoryConfig
	Redis  RedisConfig
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Memory:  DefaultMemoryConfig(),
		Redis:   DefaultRedisConfig(),
	}
}

// New creates the configured channel backend
func New(cfg Config) (Outbound, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		log.Info().Int("buffer_size", cfg.Memory.BufferSize).Msg("Using in-memory outbound channel")
		return NewMemory(cfg.Memory), nil
	case BackendRedis:
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown channel backend: %s", cfg.Backend)
	}
}
