// Package store persists inventory records. Two backends exist: an
// in-process map for single-session use and Redis for shared state.
package store

import (
	"context"
	"errors"

	"storagevoice/pkg"
)

// ErrNotFound is returned when an id does not resolve to a record.
var ErrNotFound = errors.New("store: record not found")

// Store is the persistence boundary for boxes and items. Implementations
// must be safe for concurrent use.
type Store interface {
	ListBoxes(ctx context.Context) ([]pkg.Box, error)
	CreateBox(ctx context.Context, name string) (*pkg.Box, error)
	// DeleteBox removes the box record. It reports false when no box with
	// that id existed. Callers are responsible for emptying the box first.
	DeleteBox(ctx context.Context, id string) (bool, error)

	ListItems(ctx context.Context) ([]pkg.Item, error)
	AddItem(ctx context.Context, name, canonical string, quantity int, boxID string) (*pkg.Item, error)
	// UpdateItemQuantity sets the absolute quantity. A quantity of zero or
	// less deletes the record and returns it with Quantity 0.
	UpdateItemQuantity(ctx context.Context, id string, quantity int) (*pkg.Item, error)
	MoveItemToBox(ctx context.Context, id, boxID string) (*pkg.Item, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
}
