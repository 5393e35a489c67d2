package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
		config = shared.DefaultConfig()
	}
	shared.ApplyEnv(config)

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	r.logger.Info("database migrated", "version", version)
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", config.Database.Path, version)
}

// openStore opens the durable credential store. When the database is unavailable the
// credential lives in memory for the rest of the process.
func openStore(config *shared.Config, logger *log.Logger) (credentials.Store, func()) {
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Warn("database unavailable, credentials will not persist", "error", err)
		return credentials.NewMemoryStore(), func() {}
	}

	return credentials.NewSQLiteStore(db), func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}
}
