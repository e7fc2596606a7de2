// Package todolist holds what the list view does besides drawing: the
// fire-and-forget mutation requests and the counts shown in the footer.
//
// Mutations never touch the displayed list. The list only changes when the
// backend pushes a new snapshot.
package todolist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

// ErrEmptyContent is returned by Create for blank input. No request is made.
var ErrEmptyContent = errors.New("content is empty")

// isoMillis matches JavaScript's Date.toISOString, which the data service
// stores in the date field.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type Actions struct {
	client backend.Client
	log    *slog.Logger
	now    func() time.Time
}

func NewActions(client backend.Client, log *slog.Logger) *Actions {
	if log == nil {
		log = slog.Default()
	}
	return &Actions{client: client, log: log, now: time.Now}
}

// Create sends one create request for the trimmed text.
func (a *Actions) Create(ctx context.Context, text string) (model.Todo, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return model.Todo{}, ErrEmptyContent
	}
	t, err := a.client.Create(ctx, model.NewTodo{
		Content:   content,
		IsDone:    false,
		Date:      a.now().UTC().Format(isoMillis),
		Breakdown: []string{},
	})
	if err != nil {
		a.log.Error("Error creating todo", "content", content, "error", err)
		return model.Todo{}, err
	}
	a.log.Debug("todo created", "id", t.ID)
	return t, nil
}

// Toggle flips the done flag of id, given the flag as currently displayed.
func (a *Actions) Toggle(ctx context.Context, id string, current bool) (model.Todo, error) {
	next := !current
	t, err := a.client.Update(ctx, id, model.Patch{IsDone: &next})
	if err != nil {
		a.log.Error("Error updating todo", "id", id, "isDone", next, "error", err)
		return model.Todo{}, err
	}
	return t, nil
}

func (a *Actions) Delete(ctx context.Context, id string) error {
	if err := a.client.Delete(ctx, id); err != nil {
		a.log.Error("Error deleting todo", "id", id, "error", err)
		return err
	}
	return nil
}

// Summary is the footer line, e.g. "1 of 3 completed".
func Summary(s model.Snapshot) string {
	return fmt.Sprintf("%d of %d completed", s.Completed(), s.Len())
}
