package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Channel   ChannelConfig   `yaml:"channel"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig contains the ops HTTP server settings
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
	IdleTimeout  int    `yaml:"idle_timeout"`
}

// ChannelConfig contains outbound channel settings
type ChannelConfig struct {
	// Backend selects the channel implementation: memory or redis
	Backend string `yaml:"backend"`

	// BufferSize bounds the in-memory backend
	BufferSize int `yaml:"buffer_size"`

	Redis RedisChannelConfig `yaml:"redis"`
}

// RedisChannelConfig contains Redis stream settings
type RedisChannelConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level         string            `yaml:"level"`
	Format        string            `yaml:"format"`
	IncludeCaller bool              `yaml:"include_caller"`
	GlobalFields  map[string]string `yaml:"global_fields"`
}

// TelemetryConfig contains OpenTelemetry settings
type TelemetryConfig struct {
	Enabled       bool              `yaml:"enabled"`
	ServiceName   string            `yaml:"service_name"`
	Endpoint      string            `yaml:"endpoint"`
	SamplingRatio float64           `yaml:"sampling_ratio"`
	Attributes    map[string]string `yaml:"attributes"`
}

// MetricsConfig contains metrics settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  5,
			WriteTimeout: 10,
			IdleTimeout:  120,
		},
		Channel: ChannelConfig{
			Backend:    "memory",
			BufferSize: 256,
			Redis: RedisChannelConfig{
				Addr:   "localhost:6379",
				Stream: "rosterbridge:events",
				MaxLen: 100000,
			},
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "json",
			IncludeCaller: true,
			GlobalFields:  map[string]string{},
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			ServiceName:   "rosterbridge",
			Endpoint:      "localhost:4317",
			SamplingRatio: 0.1,
			Attributes:    map[string]string{},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadConfigFromFile loads configuration from a YAML file
func LoadConfigFromFile(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("file", filePath).Msg("Configuration file not found, using defaults")
			return config, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// LoadConfig loads configuration from file, environment variables, and flags
func LoadConfig(configFile string, serverAddr string, logLevel string) (*Config, error) {
	var config *Config
	var err error

	if configFile != "" {
		config, err = LoadConfigFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		config = DefaultConfig()
	}

	applyEnvOverrides(config)

	// Command line flags take highest priority
	if serverAddr != "" {
		config.Server.Addr = serverAddr
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(config *Config) {
	if addr := os.Getenv("ROSTERBRIDGE_SERVER_ADDR"); addr != "" {
		config.Server.Addr = addr
	}

	if backend := os.Getenv("ROSTERBRIDGE_CHANNEL_BACKEND"); backend != "" {
		config.Channel.Backend = backend
	}
	if bufStr := os.Getenv("ROSTERBRIDGE_CHANNEL_BUFFER_SIZE"); bufStr != "" {
		if val, err := strconv.Atoi(bufStr); err == nil {
			config.Channel.BufferSize = val
		}
	}
	if addr := os.Getenv("ROSTERBRIDGE_REDIS_ADDR"); addr != "" {
		config.Channel.Redis.Addr = addr
	}
	if password := os.Getenv("ROSTERBRIDGE_REDIS_PASSWORD"); password != "" {
		config.Channel.Redis.Password = password
	}
	if stream := os.Getenv("ROSTERBRIDGE_REDIS_STREAM"); stream != "" {
		config.Channel.Redis.Stream = stream
	}

	if level := os.Getenv("ROSTERBRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ROSTERBRIDGE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if endpoint := os.Getenv("ROSTERBRIDGE_OTLP_ENDPOINT"); endpoint != "" {
		config.Telemetry.Endpoint = endpoint
		config.Telemetry.Enabled = true
	}
}
