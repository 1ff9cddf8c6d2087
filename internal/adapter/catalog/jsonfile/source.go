// Package jsonfile loads the catalog from a songs.json document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Config configures the JSON catalog source.
type Config struct {
	Path string `mapstructure:"path" yaml:"path" default:"data/songs.json" validate:"required"`
}

// record mirrors one entry of songs.json. IDs appear both as numbers and strings.
type record struct {
	ID     json.RawMessage `json:"id"`
	Title  string          `json:"title"`
	Artist string          `json:"artist"`
	Cover  string          `json:"cover"`
	URL    string          `json:"url"`
	Mood   string          `json:"mood"`
	Album  string          `json:"album"`
}

// Source reads tracks from a JSON array on disk.
type Source struct {
	path     string
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a Source for cfg.Path.
func New(cfg Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		path:     cfg.Path,
		logger:   logger.With(slog.String("catalog", "jsonfile")),
		validate: validator.New(),
	}
}

// Path returns the file the source reads.
func (s *Source) Path() string {
	return s.path
}

// Load reads and parses the catalog file.
func (s *Source) Load(ctx context.Context) ([]domain.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", s.path)
	}
	return s.Parse(data)
}

// Parse decodes a catalog document. Records without an id, title or url and
// records repeating an earlier id are skipped with a warning.
func (s *Source) Parse(data []byte) ([]domain.Track, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	tracks := make([]domain.Track, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		track := domain.Track{
			ID:     coerceID(r.ID),
			Title:  r.Title,
			Artist: r.Artist,
			Cover:  r.Cover,
			URL:    r.URL,
			Mood:   r.Mood,
			Album:  r.Album,
		}
		if err := s.validate.Struct(track); err != nil {
			s.logger.Warn("skipping invalid catalog record", slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}
		if seen[track.ID] {
			s.logger.Warn("skipping duplicate catalog id", slog.Int("index", i), slog.String("id", track.ID))
			continue
		}
		seen[track.ID] = true
		tracks = append(tracks, track)
	}

	s.logger.Debug("catalog parsed", slog.Int("records", len(records)), slog.Int("tracks", len(tracks)))
	return tracks, nil
}

// coerceID turns a JSON number or string into the opaque string id.
func coerceID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

// Write encodes tracks as a catalog document at path.
func Write(path string, tracks []domain.Track) error {
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write catalog %s", path)
	}
	return nil
}

// Verify that Source implements the CatalogSource interface
var _ ports.CatalogSource = (*Source)(nil)
