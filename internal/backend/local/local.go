// Package local is an offline driver: the collection lives in one JSON file,
// human-readable and portable. Several processes may share the file; writes
// are serialized with an OS lock and every process sees the others' changes
// through a directory watch.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

const lockRetry = 25 * time.Millisecond

// Store is a backend.Client over a JSON file, scoped to one owner.
type Store struct {
	path  string
	owner string
	lock  *flock.Flock
	log   *slog.Logger
	now   func() time.Time

	// writeMu serializes this process's writers; the flock only excludes
	// other processes.
	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[*subscription]struct{}
	last []byte // last state pushed to subscribers
	w    *watcher
}

var _ backend.Client = (*Store)(nil)

type Option func(*Store)

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open prepares the data file's directory. The file itself is created on
// the first write.
func Open(path, owner string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, errors.New("local: owner is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("local: mkdir: %w", err)
	}
	s := &Store{
		path:  abs,
		owner: owner,
		lock:  flock.New(abs + ".lock"),
		log:   slog.Default(),
		now:   time.Now,
		subs:  map[*subscription]struct{}{},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close stops the file watch and every open subscription.
func (s *Store) Close() error {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return nil
}

func (s *Store) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return model.Todo{}, fmt.Errorf("create: content is empty: %w", backend.ErrValidation)
	}
	if in.Date != "" {
		if _, err := time.Parse(time.RFC3339, in.Date); err != nil {
			return model.Todo{}, fmt.Errorf("create: date %q: %w", in.Date, backend.ErrValidation)
		}
	}
	breakdown := in.Breakdown
	if breakdown == nil {
		breakdown = []string{}
	}
	now := s.now().UTC()
	t := model.Todo{
		ID:        uuid.NewString(),
		Content:   content,
		IsDone:    in.IsDone,
		Date:      in.Date,
		Breakdown: breakdown,
		Owner:     s.owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.mutate(ctx, "create", func(all []model.Todo) ([]model.Todo, error) {
		return append(all, t), nil
	})
	if err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, id string, p model.Patch) (model.Todo, error) {
	var out model.Todo
	err := s.mutate(ctx, "update", func(all []model.Todo) ([]model.Todo, error) {
		i := s.find(all, id)
		if i < 0 {
			return nil, fmt.Errorf("update %s: %w", id, backend.ErrNotFound)
		}
		if p.IsDone != nil {
			all[i].IsDone = *p.IsDone
		}
		all[i].UpdatedAt = s.now().UTC()
		out = all[i]
		return all, nil
	})
	return out, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete", func(all []model.Todo) ([]model.Todo, error) {
		i := s.find(all, id)
		if i < 0 {
			return nil, fmt.Errorf("delete %s: %w", id, backend.ErrNotFound)
		}
		return append(all[:i], all[i+1:]...), nil
	})
}

// find only matches records of the store's owner.
func (s *Store) find(all []model.Todo, id string) int {
	for i, t := range all {
		if t.ID == id && t.Owner == s.owner {
			return i
		}
	}
	return -1
}

// mutate runs fn over the whole file under the OS lock, then pushes the new
// state to this process's subscribers.
func (s *Store) mutate(ctx context.Context, op string, fn func([]model.Todo) ([]model.Todo, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("%s: lock: %w", op, err)
	}
	if !locked {
		return fmt.Errorf("%s: lock: not acquired", op)
	}
	defer s.lock.Unlock()

	all, err := load(s.path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	all, err = fn(all)
	if err != nil {
		return err
	}
	if err := save(s.path, all); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("local store written", "op", op, "items", len(all))
	s.publish(all)
	return nil
}

// snapshot filters the file down to the owner's records, in file order.
func (s *Store) snapshot(all []model.Todo) model.Snapshot {
	items := make([]model.Todo, 0, len(all))
	for _, t := range all {
		if t.Owner == s.owner {
			items = append(items, t)
		}
	}
	return model.Snapshot{Items: items, Synced: true}
}

// publish pushes the owner's view to every subscriber unless it is the
// same as the last one pushed.
func (s *Store) publish(all []model.Todo) {
	snap := s.snapshot(all)
	raw, err := jsonItems(snap)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(raw, s.last) {
		return
	}
	s.last = raw
	for sub := range s.subs {
		sub.feed.Publish(snap)
	}
}

func jsonItems(snap model.Snapshot) ([]byte, error) {
	return json.Marshal(snap.Items)
}

// reload re-reads the file after an outside change.
func (s *Store) reload() {
	all, err := load(s.path)
	if err != nil {
		s.log.Warn("local store reload failed", "path", s.path, "error", err)
		return
	}
	s.publish(all)
}

func load(path string) ([]model.Todo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []model.Todo{}, nil
	}
	var items []model.Todo
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

// save replaces the file atomically so watchers never read half a write.
func save(path string, items []model.Todo) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
