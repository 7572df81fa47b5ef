package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
	"github.com/desertthunder/tunematch/internal/ui"
	"github.com/urfave/cli/v3"
)

// Review launches the interactive terminal UI for verifying stored matches.
func (r *Runner) Review(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.logger = fileLogger

	store, err := r.matchStore()
	if err != nil {
		return err
	}

	model := ui.NewModel(store, matcher.ConfigFrom(r.config), models.MatchCriteria{
		SourcePlatform: cmd.String("source-platform"),
		TargetPlatform: cmd.String("target-platform"),
		Limit:          cmd.Int("limit"),
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
