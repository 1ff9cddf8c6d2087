// Package storage builds the configured KeyValueStore backend.
package storage

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/tejashwikalptaru/gostream/internal/adapter/storage/file"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage/memory"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage/postgres"
	redisstore "github.com/tejashwikalptaru/gostream/internal/adapter/storage/redis"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage/sqlite"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Backend names accepted in the store configuration.
const (
	TypeMemory   = "memory"
	TypeFile     = "file"
	TypeSQLite   = "sqlite"
	TypeRedis    = "redis"
	TypePostgres = "postgres"
)

// Config selects a backend and carries its free-form settings.
type Config struct {
	Type     string         `yaml:"type" default:"file" validate:"oneof=memory file sqlite redis postgres"`
	Settings map[string]any `yaml:"settings"`
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (ports.KeyValueStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("store", cfg.Type))

	switch cfg.Type {
	case TypeMemory:
		logger.Info("using in-memory store; data is lost on exit")
		return memory.New(), nil

	case TypeFile:
		var c file.Config
		if err := decodeSettings(cfg.Settings, &c); err != nil {
			return nil, err
		}
		logger.Info("opening file store", slog.String("dir", c.Dir))
		return file.New(c)

	case TypeSQLite:
		var c sqlite.Config
		if err := decodeSettings(cfg.Settings, &c); err != nil {
			return nil, err
		}
		logger.Info("opening sqlite store", slog.String("path", c.Path))
		return sqlite.New(c)

	case TypeRedis:
		var c redisstore.Config
		if err := decodeSettings(cfg.Settings, &c); err != nil {
			return nil, err
		}
		logger.Info("connecting to redis store", slog.String("prefix", c.Prefix))
		return redisstore.New(ctx, c)

	case TypePostgres:
		var c postgres.Config
		if err := decodeSettings(cfg.Settings, &c); err != nil {
			return nil, err
		}
		logger.Info("connecting to postgres store")
		return postgres.New(ctx, c)

	default:
		return nil, errors.Newf("unknown store type %q", cfg.Type)
	}
}

// decodeSettings decodes a settings map into a backend config, applies its
// defaults and validates it.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode store settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set store defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "store settings validation failed")
	}
	return nil
}
