package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tunematch/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes a config file when none exists, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", r.configPath)
				r.writePlain("✓ Config written to %s\n", r.configPath)
			}
		}
	}

	if r.config.Store.Engine == "memory" {
		r.logger.Warn("store engine is memory, matches will not persist between runs")
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("%w: failed to set up database: %w", shared.ErrStorage, err)
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready: %s (%d migrations applied)\n", r.config.Database.Path, len(applied))
	return nil
}
