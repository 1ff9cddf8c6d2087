// Package redis provides a KeyValueStore backed by Redis.
package redis

import (
	"context"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Config holds the Redis store settings.
type Config struct {
	// URL is a redis:// connection URL
	URL string `mapstructure:"url" default:"redis://localhost:6379/0" validate:"required"`

	// Prefix is prepended to every key
	Prefix string `mapstructure:"prefix" default:"gostream:"`
}

// Store is a KeyValueStore over plain Redis strings.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	opt, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return NewWithClient(rdb, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *goredis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Get returns the value stored at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get %s", key)
	}
	return value, true, nil
}

// Set replaces the value stored at key. Values never expire.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err()
	return errors.Wrapf(err, "failed to set %s", key)
}

// Delete removes the key.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.rdb.Del(ctx, s.prefix+key).Err()
	return errors.Wrapf(err, "failed to delete %s", key)
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
