package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/tasks"
	"github.com/desertthunder/ymde/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI: browse the loaded playlists, confirm and watch the run.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	return r.download(ctx, cmd, true)
}

// runInteractive hands the engine to the TUI. The summary is nil when the user quits without running.
func (r *Runner) runInteractive(ctx context.Context, engine *tasks.Engine, playlists []models.Playlist) (*models.Summary, error) {
	model := ui.NewModel(ctx, playlists, engine.Run, engine.Options().DryRun)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil && model.Summary() == nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Summary(), model.Err()
}
