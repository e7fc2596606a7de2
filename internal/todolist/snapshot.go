package todolist

import (
	"context"
	"fmt"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

// FirstSnapshot subscribes, waits for the first synced snapshot and
// unsubscribes. If ctx ends first, the latest unsynced snapshot is returned
// when there was one.
func FirstSnapshot(ctx context.Context, client backend.Client) (model.Snapshot, error) {
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
		return model.Snapshot{}, fmt.Errorf("subscribe: %w", err)
	}
	// cancel first so a callback blocked on ch lets go.
	defer func() {
		cancel()
		sub.Unsubscribe()
	}()

	var (
		latest model.Snapshot
		seen   bool
	)
	for {
		select {
		case s := <-ch:
			if s.Synced {
				return s, nil
			}
			latest, seen = s, true
		case <-ctx.Done():
			if seen {
				return latest, nil
			}
			return model.Snapshot{}, fmt.Errorf("waiting for snapshot: %w", ctx.Err())
		}
	}
}

// Resolve maps a 1-based position in s to its todo.
func Resolve(s model.Snapshot, index int) (model.Todo, error) {
	if index < 1 || index > s.Len() {
		return model.Todo{}, fmt.Errorf("index out of range: have %d, got %d", s.Len(), index)
	}
	return s.Items[index-1], nil
}
