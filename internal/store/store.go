// Package store defines the local todo store contract shared by the
// on-disk backends, along with the errors they report and the
// subscription hub they use to push fresh snapshots after each write.
package store

import (
	"context"

	"github.com/idilsaglam/tada/internal/model"
)

// Store is durable client-side storage for todos, keyed by id.
//
// Reads always go to the medium, so they reflect every write committed
// before them. Each write touches a single record and is atomic on its own;
// callers that read a set and then write to it get no isolation.
type Store interface {
	// Add inserts t, ignoring t.ID, and returns the id it was assigned.
	Add(ctx context.Context, t model.Todo) (int64, error)
	// Get returns the todo with id or a NotFoundError.
	Get(ctx context.Context, id int64) (model.Todo, error)
	// Update merges p into the record. Returns NotFoundError if id is absent.
	Update(ctx context.Context, id int64, p model.Patch) error
	// Remove deletes the record; absent ids are not an error.
	Remove(ctx context.Context, id int64) error
	// Clear removes every record.
	Clear(ctx context.Context) error
	// List returns every todo, newest first.
	List(ctx context.Context) ([]model.Todo, error)
	// Subscribe registers fn to receive the full collection after every
	// committed write. The returned func removes the subscription.
	Subscribe(fn func([]model.Todo)) (unsubscribe func())
	Close() error
}

// Backend names accepted in config.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// ValidatePatch rejects patches that would move synced back to false.
func ValidatePatch(p model.Patch) error {
	if p.Synced != nil && !*p.Synced {
		return ErrSyncedReversal
	}
	return nil
}
