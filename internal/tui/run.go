package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

// Run opens the subscription and shows the view until the user quits.
// It reports whether the user signed out.
func Run(ctx context.Context, client backend.Client, opt Options) (signedOut bool, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan model.Snapshot, 1)
	sub, err := client.Subscribe(ctx, func(s model.Snapshot) {
		select {
		case ch <- s:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	defer func() {
		cancel()
		sub.Unsubscribe()
	}()

	opt.Snapshots = ch
	p := tea.NewProgram(New(ctx, opt), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return false, err
	}
	if fm, ok := final.(Model); ok {
		return fm.SignedOut(), nil
	}
	return false, nil
}
