package local

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

type subscription struct {
	store *Store
	feed  *backend.Feed
	once  sync.Once
}

func (sub *subscription) Unsubscribe() {
	sub.once.Do(func() {
		s := sub.store
		s.mu.Lock()
		delete(s.subs, sub)
		var w *watcher
		if len(s.subs) == 0 {
			w, s.w = s.w, nil
		}
		s.mu.Unlock()
		if w != nil {
			w.stop()
		}
		sub.feed.Unsubscribe()
	})
}

// Subscribe pushes the owner's current list right away, then again after
// every change to the file, whichever process made it. ctx ending has the
// same effect as Unsubscribe.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func(model.Snapshot)) (backend.Subscription, error) {
	sub := &subscription{store: s, feed: backend.NewFeed(onSnapshot)}

	s.mu.Lock()
	all, err := load(s.path)
	if err != nil {
		s.mu.Unlock()
		sub.feed.Unsubscribe()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if s.w == nil {
		w, err := s.watch()
		if err != nil {
			// Still usable: this process's own writes are pushed anyway.
			s.log.Warn("local store watch unavailable", "path", s.path, "error", err)
		}
		s.w = w
	}
	s.subs[sub] = struct{}{}
	snap := s.snapshot(all)
	if raw, err := jsonItems(snap); err == nil {
		s.last = raw
	}
	sub.feed.Publish(snap)
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-sub.feed.Done():
		}
	}()
	return sub, nil
}

type watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// watch follows the data file's directory: saves replace the file by
// rename, which a watch on the file itself would lose.
func (s *Store) watch() (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(s.path)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &watcher{fw: fw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					s.reload()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				s.log.Warn("local store watch error", "path", s.path, "error", err)
			}
		}
	}()
	return w, nil
}

func (w *watcher) stop() {
	w.fw.Close()
	<-w.done
}
