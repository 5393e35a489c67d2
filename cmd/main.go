package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(".env"); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	shared.ApplyEnv(config)

	if err := shared.SetLogLevel(logger, config.Log.Level); err != nil {
		logger.Warn("ignoring log level", "error", err)
	}

	store, closeStore := openStore(config, logger)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Store:  store,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "spotibaby",
		Usage:    "Kiosk remote for Spotify playback",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	closeStore()
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
