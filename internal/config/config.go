// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/jsonfile"
	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/tagscan"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage"
	"github.com/tejashwikalptaru/gostream/internal/logger"
	"github.com/tejashwikalptaru/gostream/internal/player"
)

// Environment variables that take precedence over file values.
const (
	EnvJWTSecret = "GOSTREAM_JWT_SECRET"
	EnvStoreDSN  = "GOSTREAM_STORE_DSN"
)

// Catalog source types.
const (
	CatalogJSONFile = "jsonfile"
	CatalogTagScan  = "tagscan"
)

// Playback device types.
const (
	DeviceMock   = "mock"
	DeviceRemote = "remote"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Log     LogConfig      `yaml:"log"`
	Auth    AuthConfig     `yaml:"auth"`
	Catalog CatalogConfig  `yaml:"catalog"`
	Store   storage.Config `yaml:"store"`
	Player  PlayerConfig   `yaml:"player"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr         string        `yaml:"addr" default:":4000" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s" validate:"gte=0"`
	CORSOrigin   string        `yaml:"cors_origin" default:"*"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// AuthConfig represents API authentication configuration.
type AuthConfig struct {
	// JWTSecret enables bearer tokens when set
	JWTSecret string `yaml:"jwt_secret"`

	// DefaultUser is used without tokens when a request names no user
	DefaultUser string `yaml:"default_user" default:"guest"`

	// TokenTTL is the lifetime of tokens issued by the CLI
	TokenTTL time.Duration `yaml:"token_ttl" default:"24h" validate:"gt=0"`
}

// CatalogConfig represents the catalog source configuration.
type CatalogConfig struct {
	Type      string `yaml:"type" default:"jsonfile" validate:"oneof=jsonfile tagscan"`
	Path      string `yaml:"path" default:"data/songs.json" validate:"required_if=Type jsonfile"`
	MusicDir  string `yaml:"music_dir" validate:"required_if=Type tagscan"`
	URLPrefix string `yaml:"url_prefix" default:"/songs"`
	Watch     bool   `yaml:"watch" default:"true"`
}

// PlayerConfig represents the player session configuration.
type PlayerConfig struct {
	Shuffle  bool   `yaml:"shuffle" default:"true"`
	Repeat   bool   `yaml:"repeat" default:"true"`
	History  bool   `yaml:"history" default:"true"`
	AutoSeed bool   `yaml:"auto_seed" default:"true"`
	Device   string `yaml:"device" default:"remote" validate:"oneof=mock remote"`
}

// Default returns the configuration with every default applied.
func Default() *Config {
	var cfg Config
	// Only fails for malformed default tags.
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Load loads configuration from a YAML file. An empty path yields the defaults.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	// Defaults go first so an explicit false in the file survives.
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvStoreDSN); v != "" {
		if c.Store.Settings == nil {
			c.Store.Settings = make(map[string]any)
		}
		c.Store.Settings[dsnKey(c.Store.Type)] = v
	}
}

// dsnKey names the settings key holding the location of a store backend.
func dsnKey(storeType string) string {
	switch storeType {
	case storage.TypePostgres:
		return "dsn"
	case storage.TypeRedis:
		return "url"
	case storage.TypeSQLite:
		return "path"
	default:
		return "dir"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.FromSettings(c.Log.Level, c.Log.Format)
}

// JSONFile returns the jsonfile catalog configuration.
func (c *Config) JSONFile() jsonfile.Config {
	return jsonfile.Config{Path: c.Catalog.Path}
}

// TagScan returns the tagscan catalog configuration.
func (c *Config) TagScan() tagscan.Config {
	return tagscan.Config{Dir: c.Catalog.MusicDir, URLPrefix: c.Catalog.URLPrefix}
}

// CatalogPath returns the file or directory the catalog is read from.
func (c *Config) CatalogPath() string {
	if c.Catalog.Type == CatalogTagScan {
		return c.Catalog.MusicDir
	}
	return c.Catalog.Path
}

// PlayerOptions returns the player capabilities.
func (c *Config) PlayerOptions() player.Options {
	opts := player.DefaultOptions()
	opts.Shuffle = c.Player.Shuffle
	opts.Repeat = c.Player.Repeat
	opts.History = c.Player.History
	opts.AutoSeed = c.Player.AutoSeed
	return opts
}
