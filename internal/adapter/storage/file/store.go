// Package file provides a KeyValueStore that keeps one JSON document per key
// in a directory. This is the flat-file deployment: each write replaces the
// whole document atomically (temp file + rename).
package file

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Config holds the file store settings.
type Config struct {
	// Dir is the directory holding the documents
	Dir string `mapstructure:"dir" default:"data/store" validate:"required"`
}

// Store is a directory-backed KeyValueStore.
//
// Thread-safety: This implementation is thread-safe within one process.
// Concurrent processes sharing a directory get last-writer-wins.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// New creates the directory if needed and returns a store rooted there.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create store directory %s", cfg.Dir)
	}
	return &Store{dir: cfg.Dir}, nil
}

// path maps a key to its document. Keys are escaped so "alice:liked" and
// user-supplied ids cannot escape the directory.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Get reads the document stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read %s", key)
	}
	return data, true, nil
}

// Set atomically replaces the document stored at key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to write %s", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to close temp file for %s", key)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace %s", key)
	}
	return nil
}

// Delete removes the document stored at key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to delete %s", key)
	}
	return nil
}

// Close is a no-op; no handles are held between calls.
func (s *Store) Close() error {
	return nil
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
