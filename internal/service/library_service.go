package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// DefaultCover is used for artists whose first track has no artwork.
const DefaultCover = "/covers/default.jpg"

// LibraryService holds the catalog and answers queries over it.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	source ports.CatalogSource
	bus    ports.EventBus

	// State
	tracks []domain.Track
	byID   map[string]int

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a library over source. The catalog is empty until Reload.
func NewLibraryService(
	logger *slog.Logger,
	source ports.CatalogSource,
	bus ports.EventBus,
) *LibraryService {
	return &LibraryService{
		logger: logger.With(slog.String("service", "library")),
		source: source,
		bus:    bus,
		byID:   make(map[string]int),
	}
}

// Reload reads the catalog from the source and publishes catalog.loaded.
// On failure the previous catalog stays in place.
func (s *LibraryService) Reload(ctx context.Context) error {
	tracks, err := s.source.Load(ctx)
	if err != nil {
		return domain.NewServiceError("LibraryService", "Reload", "failed to load catalog", err)
	}

	byID := make(map[string]int, len(tracks))
	for i, t := range tracks {
		byID[t.ID] = i
	}

	s.mu.Lock()
	s.tracks = tracks
	s.byID = byID
	s.mu.Unlock()

	s.logger.Info("catalog loaded", slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewCatalogLoadedEvent(len(tracks)))
	return nil
}

// Tracks returns the catalog in source order.
func (s *LibraryService) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// Count returns the number of tracks.
func (s *LibraryService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Track returns the track with the given id.
func (s *LibraryService) Track(id string) (domain.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return domain.Track{}, errors.Wrapf(domain.ErrTrackNotFound, "track %q", id)
	}
	return s.tracks[i], nil
}

// TracksByIDs resolves ids in the given order, skipping unknown ones.
func (s *LibraryService) TracksByIDs(ids []string) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := make([]domain.Track, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			tracks = append(tracks, s.tracks[i])
		}
	}
	return tracks
}

// Search returns the tracks whose title, artist or mood contains query,
// ignoring case. An empty query returns the whole catalog.
func (s *LibraryService) Search(query string) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.Track, 0)
	for _, t := range s.tracks {
		if t.Matches(query) {
			matches = append(matches, t)
		}
	}
	return matches
}

// Artists returns the artist directory in order of first appearance,
// optionally filtered by a case-insensitive name substring.
// Collaborations count towards every named artist.
func (s *LibraryService) Artists(filter string) []domain.Artist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter = strings.ToLower(strings.TrimSpace(filter))
	artists := make([]domain.Artist, 0)
	index := make(map[string]int)
	for _, t := range s.tracks {
		for _, name := range t.Artists() {
			key := strings.ToLower(name)
			if i, ok := index[key]; ok {
				artists[i].SongCount++
				continue
			}
			cover := t.Cover
			if cover == "" {
				cover = DefaultCover
			}
			index[key] = len(artists)
			artists = append(artists, domain.Artist{Name: name, SongCount: 1, Cover: cover})
		}
	}

	if filter == "" {
		return artists
	}
	return slices.DeleteFunc(artists, func(a domain.Artist) bool {
		return !strings.Contains(strings.ToLower(a.Name), filter)
	})
}

// ArtistTracks returns the tracks crediting name.
func (s *LibraryService) ArtistTracks(name string) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := make([]domain.Track, 0)
	for _, t := range s.tracks {
		if t.HasArtist(name) {
			tracks = append(tracks, t)
		}
	}
	return tracks
}
