package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// CollectionService manages user playlists, liked tracks and followed artists.
// Every mutation loads the owning collection, changes it and saves it back
// before returning. All operations are thread-safe.
type CollectionService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	playlists ports.PlaylistRepository
	likes     ports.SetRepository
	follows   ports.SetRepository
	bus       ports.EventBus

	now   func() time.Time
	newID func() string

	// Concurrency control
	mu sync.Mutex
}

// NewCollectionService creates a collection service.
func NewCollectionService(
	logger *slog.Logger,
	playlists ports.PlaylistRepository,
	likes ports.SetRepository,
	follows ports.SetRepository,
	bus ports.EventBus,
) *CollectionService {
	return &CollectionService{
		logger:    logger.With(slog.String("service", "collection")),
		playlists: playlists,
		likes:     likes,
		follows:   follows,
		bus:       bus,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Playlists returns the user's playlists in creation order.
func (s *CollectionService) Playlists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	return s.playlists.LoadAll(ctx, userID)
}

// Playlist returns one playlist.
func (s *CollectionService) Playlist(ctx context.Context, userID, playlistID string) (domain.Playlist, error) {
	all, err := s.playlists.LoadAll(ctx, userID)
	if err != nil {
		return domain.Playlist{}, err
	}
	i, err := findPlaylist(all, playlistID)
	if err != nil {
		return domain.Playlist{}, err
	}
	return all[i], nil
}

// CreatePlaylist creates an empty playlist. A blank name becomes "My Playlist #N".
func (s *CollectionService) CreatePlaylist(ctx context.Context, userID, name string) (domain.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.playlists.LoadAll(ctx, userID)
	if err != nil {
		return domain.Playlist{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("My Playlist #%d", len(all)+1)
	}

	now := s.now()
	playlist := domain.Playlist{
		ID:        s.newID(),
		Name:      name,
		Songs:     []domain.Track{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.playlists.SaveAll(ctx, userID, append(all, playlist)); err != nil {
		return domain.Playlist{}, err
	}

	s.logger.Debug("playlist created", slog.String("user", userID), slog.String("playlist_id", playlist.ID))
	s.bus.Publish(domain.NewPlaylistChangedEvent(userID, domain.PlaylistCreated, playlist))
	return playlist, nil
}

// RenamePlaylist changes a playlist's name.
func (s *CollectionService) RenamePlaylist(ctx context.Context, userID, playlistID, name string) (domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Playlist{}, domain.ErrEmptyName
	}

	return s.updatePlaylist(ctx, userID, playlistID, func(p *domain.Playlist) bool {
		if p.Name == name {
			return false
		}
		p.Name = name
		return true
	})
}

// AddSongToPlaylist appends track unless the playlist already holds it.
// Returns whether the track was added.
func (s *CollectionService) AddSongToPlaylist(ctx context.Context, userID, playlistID string, track domain.Track) (bool, error) {
	var added bool
	_, err := s.updatePlaylist(ctx, userID, playlistID, func(p *domain.Playlist) bool {
		if p.IndexOf(track.ID) >= 0 {
			return false
		}
		p.Songs = append(p.Songs, track)
		added = true
		return true
	})
	return added, err
}

// RemoveSongFromPlaylist removes the track from the playlist.
// Returns whether anything was removed.
func (s *CollectionService) RemoveSongFromPlaylist(ctx context.Context, userID, playlistID, trackID string) (bool, error) {
	var removed bool
	_, err := s.updatePlaylist(ctx, userID, playlistID, func(p *domain.Playlist) bool {
		before := len(p.Songs)
		p.Songs = lo.Reject(p.Songs, func(t domain.Track, _ int) bool { return t.ID == trackID })
		removed = len(p.Songs) != before
		return removed
	})
	return removed, err
}

// RemovePlaylist deletes a playlist.
func (s *CollectionService) RemovePlaylist(ctx context.Context, userID, playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.playlists.LoadAll(ctx, userID)
	if err != nil {
		return err
	}
	i, err := findPlaylist(all, playlistID)
	if err != nil {
		return err
	}
	removed := all[i]

	if err := s.playlists.SaveAll(ctx, userID, slices.Delete(all, i, i+1)); err != nil {
		return err
	}

	s.bus.Publish(domain.NewPlaylistChangedEvent(userID, domain.PlaylistDeleted, removed))
	return nil
}

// updatePlaylist applies mutate to one playlist and saves the collection
// when mutate reports a change.
func (s *CollectionService) updatePlaylist(ctx context.Context, userID, playlistID string, mutate func(*domain.Playlist) bool) (domain.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.playlists.LoadAll(ctx, userID)
	if err != nil {
		return domain.Playlist{}, err
	}
	i, err := findPlaylist(all, playlistID)
	if err != nil {
		return domain.Playlist{}, err
	}

	if !mutate(&all[i]) {
		return all[i], nil
	}
	all[i].UpdatedAt = s.now()

	if err := s.playlists.SaveAll(ctx, userID, all); err != nil {
		return domain.Playlist{}, err
	}

	s.bus.Publish(domain.NewPlaylistChangedEvent(userID, domain.PlaylistUpdated, all[i]))
	return all[i], nil
}

func findPlaylist(all []domain.Playlist, playlistID string) (int, error) {
	i := slices.IndexFunc(all, func(p domain.Playlist) bool { return p.ID == playlistID })
	if i < 0 {
		return -1, errors.Wrapf(domain.ErrPlaylistNotFound, "playlist %q", playlistID)
	}
	return i, nil
}

// Likes returns the liked track ids in the order they were liked.
func (s *CollectionService) Likes(ctx context.Context, userID string) ([]string, error) {
	return s.likes.Load(ctx, userID)
}

// IsLiked reports whether the user likes the track.
func (s *CollectionService) IsLiked(ctx context.Context, userID, trackID string) (bool, error) {
	likes, err := s.likes.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(likes, trackID), nil
}

// ToggleLike likes or unlikes a track and returns whether it is now liked.
func (s *CollectionService) ToggleLike(ctx context.Context, userID, trackID string) (bool, error) {
	liked, err := s.toggle(ctx, s.likes, userID, trackID, func(a, b string) bool { return a == b })
	if err != nil {
		return false, err
	}
	s.bus.Publish(domain.NewLikeToggledEvent(userID, trackID, liked))
	return liked, nil
}

// FollowedArtists returns the followed artist names in the order they were followed.
func (s *CollectionService) FollowedArtists(ctx context.Context, userID string) ([]string, error) {
	return s.follows.Load(ctx, userID)
}

// ToggleFollowArtist follows or unfollows an artist and returns whether it is
// now followed. Names compare case-insensitively.
func (s *CollectionService) ToggleFollowArtist(ctx context.Context, userID, artist string) (bool, error) {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return false, domain.ErrEmptyName
	}

	followed, err := s.toggle(ctx, s.follows, userID, artist, strings.EqualFold)
	if err != nil {
		return false, err
	}
	s.bus.Publish(domain.NewFollowToggledEvent(userID, artist, followed))
	return followed, nil
}

// toggle removes member from the set if present, else appends it.
func (s *CollectionService) toggle(ctx context.Context, repo ports.SetRepository, userID, member string, equal func(a, b string) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := repo.Load(ctx, userID)
	if err != nil {
		return false, err
	}

	present := lo.ContainsBy(members, func(m string) bool { return equal(m, member) })
	if present {
		members = lo.Reject(members, func(m string, _ int) bool { return equal(m, member) })
	} else {
		members = append(members, member)
	}

	if err := repo.Save(ctx, userID, members); err != nil {
		return false, err
	}
	return !present, nil
}
