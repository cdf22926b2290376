// Package storage defines where game snapshots live. Backends are in the
// memory, sqlite, postgres and redis subpackages.
package storage

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/cory-johannsen/idleparty/internal/storage Store

import (
	"context"
	"errors"
)

// DefaultSlot is the save slot used when none is configured.
const DefaultSlot = "default"

// ErrNotFound is returned by Load when a slot holds no snapshot.
var ErrNotFound = errors.New("storage: snapshot not found")

// Store persists opaque snapshot bytes under a slot name.
type Store interface {
	// Load returns the snapshot saved in slot, or ErrNotFound.
	Load(ctx context.Context, slot string) ([]byte, error)
	// Save replaces the snapshot in slot.
	Save(ctx context.Context, slot string, data []byte) error
	// Close releases the store's resources.
	Close() error
}
