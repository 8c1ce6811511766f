// Package tui is the interactive terminal view over the app's stores.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/logger"
)

// Run shows the TUI until the user quits or ctx is cancelled
func Run(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, a)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		logger.Error("TUI program failed", logger.F("error", err))
		return err
	}
	return nil
}
