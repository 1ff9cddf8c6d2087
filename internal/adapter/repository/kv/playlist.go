package kv

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository.
// A user's playlists are stored as one JSON array at "<user>:playlists".
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	store  ports.KeyValueStore
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewPlaylistRepository creates a new playlist repository.
func NewPlaylistRepository(store ports.KeyValueStore, logger *slog.Logger) *PlaylistRepository {
	return &PlaylistRepository{
		store:  store,
		logger: orDefault(logger),
	}
}

// LoadAll retrieves all playlists of the user.
func (r *PlaylistRepository) LoadAll(ctx context.Context, userID string) ([]domain.Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var playlists []domain.Playlist
	found, err := loadJSON(ctx, r.store, r.logger, Key(userID, CollectionPlaylists), &playlists)
	if err != nil {
		return nil, err
	}
	if !found || playlists == nil {
		return []domain.Playlist{}, nil
	}

	// Older documents may carry a null song list
	for i := range playlists {
		if playlists[i].Songs == nil {
			playlists[i].Songs = []domain.Track{}
		}
	}
	return playlists, nil
}

// SaveAll replaces the user's playlists.
func (r *PlaylistRepository) SaveAll(ctx context.Context, userID string, playlists []domain.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playlists == nil {
		playlists = []domain.Playlist{}
	}
	return saveJSON(ctx, r.store, Key(userID, CollectionPlaylists), playlists)
}

// Verify interface implementation
var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
