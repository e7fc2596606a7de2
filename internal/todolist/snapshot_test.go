package todolist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/idilsaglam/tada-sync/internal/model"
	"github.com/idilsaglam/tada-sync/internal/testutil"
)

func TestFirstSnapshotWaitsForSync(t *testing.T) {
	b := testutil.NewBackend()
	unsynced := testutil.Snapshot(testutil.Item{Content: "cached"})
	unsynced.Synced = false
	b.Initial = &unsynced

	done := make(chan model.Snapshot, 1)
	go func() {
		s, err := FirstSnapshot(context.Background(), b)
		if err != nil {
			t.Error(err)
		}
		done <- s
	}()

	time.Sleep(20 * time.Millisecond)
	b.Push(testutil.Snapshot(testutil.Item{Content: "a"}, testutil.Item{Content: "b", Done: true}))

	select {
	case s := <-done:
		if !s.Synced || s.Len() != 2 {
			t.Fatalf("got %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("FirstSnapshot never returned")
	}
}

func TestFirstSnapshotTimeout(t *testing.T) {
	b := testutil.NewBackend()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := FirstSnapshot(ctx, b); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}

	unsynced := testutil.Snapshot(testutil.Item{Content: "stale"})
	unsynced.Synced = false
	b.Initial = &unsynced
	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	s, err := FirstSnapshot(ctx2, b)
	if err != nil {
		t.Fatal(err)
	}
	if s.Synced || s.Len() != 1 {
		t.Errorf("want the unsynced snapshot back, got %+v", s)
	}
}

func TestResolve(t *testing.T) {
	s := testutil.Snapshot(testutil.Item{Content: "a"}, testutil.Item{Content: "b"})
	got, err := Resolve(s, 2)
	if err != nil || got.Content != "b" {
		t.Fatalf("Resolve(2) = %+v, %v", got, err)
	}
	for _, i := range []int{0, 3, -1} {
		if _, err := Resolve(s, i); err == nil {
			t.Errorf("Resolve(%d) succeeded", i)
		}
	}
}
