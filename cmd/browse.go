package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/uidx/internal/shared"
	"github.com/desertthunder/uidx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive duplicate browser over the saved UId table.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	logPath := cmd.String("log-file")
	if logPath == "" {
		return fmt.Errorf("%w: --log-file", shared.ErrMissingArgument)
	}

	// Logs go to a file while the TUI owns the terminal
	fileLogger, logFile, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	if err := r.prepare(cmd); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.snapshots, r.exchange)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
