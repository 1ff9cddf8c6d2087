// Package tagscan builds a catalog by walking a music directory and reading
// embedded tags.
package tagscan

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Extensions are the audio file types the scanner picks up.
var Extensions = []string{".mp3", ".m4a", ".flac", ".ogg", ".dsf"}

// Config configures the tag scanner.
type Config struct {
	Dir       string `mapstructure:"music_dir" yaml:"music_dir" validate:"required"`
	URLPrefix string `mapstructure:"url_prefix" yaml:"url_prefix" default:"/songs"`
}

// Scanner is a CatalogSource reading tags from audio files under a directory.
type Scanner struct {
	dir       string
	urlPrefix string
	logger    *slog.Logger
}

// New creates a Scanner.
func New(cfg Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		dir:       cfg.Dir,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
		logger:    logger.With(slog.String("catalog", "tagscan")),
	}
}

// Path returns the scanned directory.
func (s *Scanner) Path() string {
	return s.dir
}

// Load walks the directory and returns one track per audio file, sorted by path.
// Files whose tags cannot be read fall back to the file name as title.
func (s *Scanner) Load(ctx context.Context) ([]domain.Track, error) {
	var files []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(Extensions, strings.ToLower(filepath.Ext(p))) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.dir)
	}

	slices.Sort(files)
	tracks := make([]domain.Track, 0, len(files))
	for _, f := range files {
		track, err := s.readTrack(f)
		if err != nil {
			s.logger.Warn("skipping unreadable file", slog.String("file", f), slog.String("error", err.Error()))
			continue
		}
		tracks = append(tracks, track)
	}

	s.logger.Info("music directory scanned", slog.String("dir", s.dir), slog.Int("tracks", len(tracks)))
	return tracks, nil
}

func (s *Scanner) readTrack(file string) (domain.Track, error) {
	rel, err := filepath.Rel(s.dir, file)
	if err != nil {
		return domain.Track{}, err
	}
	rel = filepath.ToSlash(rel)

	track := domain.Track{
		ID:    trackID(rel),
		Title: strings.TrimSuffix(path.Base(rel), path.Ext(rel)),
		URL:   s.trackURL(rel),
	}

	f, err := os.Open(file)
	if err != nil {
		return domain.Track{}, err
	}
	defer f.Close()

	metadata, err := tag.ReadFrom(f)
	if err != nil || metadata == nil {
		return track, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Title = title
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		track.Artist = artist
	} else if albumArtist := strings.TrimSpace(metadata.AlbumArtist()); albumArtist != "" {
		track.Artist = albumArtist
	}
	track.Album = strings.TrimSpace(metadata.Album())
	track.Mood = strings.ToLower(strings.TrimSpace(metadata.Genre()))

	return track, nil
}

// trackURL escapes every path segment and joins it under the URL prefix.
func (s *Scanner) trackURL(rel string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.urlPrefix + "/" + strings.Join(segments, "/")
}

// trackID derives a stable id from the path relative to the music directory.
func trackID(rel string) string {
	sum := sha1.Sum([]byte(rel))
	return hex.EncodeToString(sum[:])[:12]
}

// Verify that Scanner implements the CatalogSource interface
var _ ports.CatalogSource = (*Scanner)(nil)
