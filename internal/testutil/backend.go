// Package testutil provides a scripted in-memory backend for tests of the
// view and the commands.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

// Call records one request made to the Backend.
type Call struct {
	Op    string // create, update, delete
	ID    string
	New   model.NewTodo
	Patch model.Patch
}

// Backend records requests and pushes whatever snapshots the test sends.
// It never pushes on its own: tests decide when the "server" answers.
type Backend struct {
	mu    sync.Mutex
	calls []Call
	err   error
	feeds []*backend.Feed

	// Initial, when set, is pushed to every new subscriber.
	Initial *model.Snapshot
}

var _ backend.Client = (*Backend)(nil)

func NewBackend() *Backend { return &Backend{} }

// FailWith makes every following mutation return err.
func (b *Backend) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

func (b *Backend) record(c Call) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
	return b.err
}

func (b *Backend) Create(_ context.Context, in model.NewTodo) (model.Todo, error) {
	if err := b.record(Call{Op: "create", New: in}); err != nil {
		return model.Todo{}, err
	}
	return model.Todo{
		ID:        fmt.Sprintf("id-%d", len(b.Calls())),
		Content:   in.Content,
		IsDone:    in.IsDone,
		Date:      in.Date,
		Breakdown: in.Breakdown,
	}, nil
}

func (b *Backend) Update(_ context.Context, id string, p model.Patch) (model.Todo, error) {
	if err := b.record(Call{Op: "update", ID: id, Patch: p}); err != nil {
		return model.Todo{}, err
	}
	t := model.Todo{ID: id}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	return t, nil
}

func (b *Backend) Delete(_ context.Context, id string) error {
	return b.record(Call{Op: "delete", ID: id})
}

func (b *Backend) Subscribe(ctx context.Context, onSnapshot func(model.Snapshot)) (backend.Subscription, error) {
	f := backend.NewFeed(onSnapshot)
	b.mu.Lock()
	b.feeds = append(b.feeds, f)
	initial := b.Initial
	b.mu.Unlock()
	if initial != nil {
		f.Publish(*initial)
	}
	return f, nil
}

// Push delivers s to every open subscription.
func (b *Backend) Push(s model.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.feeds {
		f.Publish(s)
	}
}

// Snapshot builds a synced snapshot from content/done pairs; ids are the
// 1-based positions ("t1", "t2", ...).
func Snapshot(items ...Item) model.Snapshot {
	s := model.Snapshot{Synced: true, Items: make([]model.Todo, 0, len(items))}
	for i, it := range items {
		s.Items = append(s.Items, model.Todo{
			ID:        fmt.Sprintf("t%d", i+1),
			Content:   it.Content,
			IsDone:    it.Done,
			Date:      "2026-10-15T08:00:00.000Z",
			Breakdown: []string{},
		})
	}
	return s
}

type Item struct {
	Content string
	Done    bool
}
