// Package memory provides an in-memory KeyValueStore.
// Values live only as long as the process; used by tests and the CLI.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Store is a map-backed KeyValueStore.
//
// Thread-safety: This implementation is thread-safe.
type Store struct {
	data   map[string][]byte
	mu     sync.RWMutex
	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, domain.NewRepositoryError("get", key, "store closed", nil)
	}

	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

// Set replaces the value stored at key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.NewRepositoryError("set", key, "store closed", nil)
	}

	s.data[key] = slices.Clone(value)
	return nil
}

// Delete removes the key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Close drops all values. Further Get and Set calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = make(map[string][]byte)
	return nil
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
