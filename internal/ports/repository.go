// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/gostream/internal/domain"
)

// PlaylistRepository handles the persistence of a user's playlists.
// The whole collection is written on every mutation.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// LoadAll retrieves all playlists of the user in creation order.
	// Missing or malformed data yields an empty slice (not an error).
	LoadAll(ctx context.Context, userID string) ([]domain.Playlist, error)

	// SaveAll replaces the user's playlists.
	SaveAll(ctx context.Context, userID string, playlists []domain.Playlist) error
}

// SetRepository handles the persistence of a user-scoped set of strings,
// such as liked track ids or followed artist names.
//
// Thread-safety: Implementations must be thread-safe.
type SetRepository interface {
	// Load retrieves the set in insertion order.
	// Missing or malformed data yields an empty slice (not an error).
	Load(ctx context.Context, userID string) ([]string, error)

	// Save replaces the set.
	Save(ctx context.Context, userID string, members []string) error
}

// HistoryRepository handles the persistence of the recently played list
// and the per-track play counts derived from it.
//
// Thread-safety: Implementations must be thread-safe.
type HistoryRepository interface {
	// LoadHistory retrieves the most-recent-first history.
	// If no history was saved, returns an empty slice (not an error).
	LoadHistory(ctx context.Context, userID string) ([]domain.Track, error)

	// SaveHistory replaces the history.
	SaveHistory(ctx context.Context, userID string, history []domain.Track) error

	// LoadPlayCounts retrieves the play counts keyed by track id.
	// If none were saved, returns an empty map (not an error).
	LoadPlayCounts(ctx context.Context, userID string) (map[string]domain.PlayCount, error)

	// SavePlayCounts replaces the play counts.
	SavePlayCounts(ctx context.Context, userID string, counts map[string]domain.PlayCount) error
}

// PreferencesRepository handles the persistence of user preferences.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Load retrieves the saved preferences.
	// found is false when nothing (or nothing readable) was saved.
	Load(ctx context.Context, userID string) (prefs domain.Preferences, found bool, err error)

	// Save persists the preferences.
	Save(ctx context.Context, userID string, prefs domain.Preferences) error
}
