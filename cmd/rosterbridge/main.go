package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/presenceio/rosterbridge/internal/config"
	"github.com/presenceio/rosterbridge/internal/engine"
	"github.com/presenceio/rosterbridge/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to YAML configuration file")
		serverAddr = flag.String("addr", "", "Ops server address (overrides config)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile, *serverAddr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.ToLoggingConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	if err := eng.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Engine exited with error")
	}
}
