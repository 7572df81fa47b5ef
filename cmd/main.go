package main

import (
	"context"
	"os"

	"github.com/desertthunder/tunematch/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. Config loading happens in Before so every subcommand sees the same config.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tunematch",
		Usage:   "Match tracks across music catalogs and manage the match cache",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   r.configPath,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before:   r.configure,
		After:    r.close,
		Commands: r.register(),
	}
}
