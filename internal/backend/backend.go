// Package backend defines the boundary between the to-do client and the
// managed data service that stores, validates and pushes the collection.
package backend

import (
	"context"

	"github.com/idilsaglam/tada-sync/internal/model"
)

// Client is the data service as seen by the view.
type Client interface {
	Create(ctx context.Context, in model.NewTodo) (model.Todo, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Todo, error)
	Delete(ctx context.Context, id string) error

	// Subscribe opens a push feed of full snapshots of the current user's
	// collection. onSnapshot is called from a goroutine owned by the
	// driver, never concurrently with itself.
	Subscribe(ctx context.Context, onSnapshot func(model.Snapshot)) (Subscription, error)
}

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	Unsubscribe()
}
