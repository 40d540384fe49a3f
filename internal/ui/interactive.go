package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/ui/models"
)

// RunScan runs req on eng behind a spinner view. Progress is shown when the
// engine has a progress reporter.
func RunScan(ctx context.Context, eng *engine.Engine, req engine.ScanRequest, categories []string) (*engine.ScanResult, error) {
	var updates <-chan interface{}
	if pr := eng.Progress(); pr != nil {
		updates = pr.Subscribe()
		defer pr.Unsubscribe(updates)
	}

	run := func(ctx context.Context) (*engine.ScanResult, error) {
		return eng.Scan(ctx, req)
	}
	m := models.NewScanViewModel(ctx, run, updates, eng.Home(), categories)

	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("error running scan view: %w", err)
	}
	return final.(*models.ScanViewModel).Result()
}

// Confirm shows the dry-run preview and asks before applying in mode
func Confirm(preview *cleaner.ApplyResult, mode cleaner.Mode) (bool, error) {
	m := models.NewConfirmViewModel(preview, mode)

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, fmt.Errorf("error running confirmation: %w", err)
	}
	return final.(*models.ConfirmViewModel).Confirmed(), nil
}
