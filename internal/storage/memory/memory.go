// Package memory is an in-process storage.Store for tests and throwaway runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cory-johannsen/idleparty/internal/storage"
)

// Store keeps snapshots in a map. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// Load returns a copy of the snapshot in slot.
func (s *Store) Load(_ context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.slots[slot]
	if !ok {
		return nil, fmt.Errorf("%w: slot %q", storage.ErrNotFound, slot)
	}
	return slices.Clone(data), nil
}

// Save stores a copy of data in slot.
func (s *Store) Save(_ context.Context, slot string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = slices.Clone(data)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
