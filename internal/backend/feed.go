package backend

import (
	"sync"

	"github.com/idilsaglam/tada-sync/internal/model"
)

// Feed hands snapshots to a callback on its own goroutine. A snapshot that
// is superseded before the callback picks it up is dropped: every snapshot
// is a full replacement, so only the latest one matters.
//
// Publish must not be called concurrently.
type Feed struct {
	ch   chan model.Snapshot
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewFeed(onSnapshot func(model.Snapshot)) *Feed {
	f := &Feed{
		ch:   make(chan model.Snapshot, 1),
		done: make(chan struct{}),
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-f.done:
				return
			case s := <-f.ch:
				onSnapshot(s)
			}
		}
	}()
	return f
}

// Publish queues s, replacing any snapshot still waiting for delivery.
func (f *Feed) Publish(s model.Snapshot) {
	for {
		select {
		case <-f.done:
			return
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// Unsubscribe stops delivery. It waits for an in-flight callback to return,
// so it must not be called from inside the callback.
func (f *Feed) Unsubscribe() {
	f.once.Do(func() { close(f.done) })
	f.wg.Wait()
}

// Done is closed once Unsubscribe has been called.
func (f *Feed) Done() <-chan struct{} { return f.done }
