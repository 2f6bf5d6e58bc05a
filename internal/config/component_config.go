package config

import (
	"time"

	"github.com/presenceio/rosterbridge/internal/channel"
	"github.com/presenceio/rosterbridge/internal/logging"
	"github.com/presenceio/rosterbridge/internal/server"
	"github.com/presenceio/rosterbridge/internal/telemetry"
)

// ToChannelConfig converts the central config to a channel config
func (c *Config) ToChannelConfig() channel.Config {
	return channel.Config{
		Backend: c.Channel.Backend,
		Memory: channel.MemoryConfig{
			BufferSize: c.Channel.BufferSize,
		},
		Redis: channel.RedisConfig{
			Addr:     c.Channel.Redis.Addr,
			Password: c.Channel.Redis.Password,
			DB:       c.Channel.Redis.DB,
			Stream:   c.Channel.Redis.Stream,
			MaxLen:   c.Channel.Redis.MaxLen,
		},
	}
}

// ToServerConfig converts the central config to an ops server config
func (c *Config) ToServerConfig() server.Config {
	return server.Config{
		Addr:         c.Server.Addr,
		ReadTimeout:  time.Duration(c.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(c.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(c.Server.IdleTimeout) * time.Second,
		MetricsPath:  c.Metrics.Path,
		Metrics:      c.Metrics.Enabled,
	}
}

// ToLoggingConfig converts the central config to a logging config
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:             logging.LogLevel(c.Logging.Level),
		Format:            logging.LogFormat(c.Logging.Format),
		IncludeCaller:     c.Logging.IncludeCaller,
		IncludeStacktrace: true,
		GlobalFields:      c.Logging.GlobalFields,
	}
}

// ToTelemetryConfig converts the central config to a telemetry config
func (c *Config) ToTelemetryConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:       c.Telemetry.Enabled,
		ServiceName:   c.Telemetry.ServiceName,
		Endpoint:      c.Telemetry.Endpoint,
		SamplingRatio: c.Telemetry.SamplingRatio,
		Timeout:       5 * time.Second,
		Attributes:    c.Telemetry.Attributes,
	}
}
