// Package kv implements the repositories over a ports.KeyValueStore.
//
// Every collection lives at one key, "<user>:<collection>", holding a JSON
// document that is replaced wholesale on each save. A missing key is an empty
// collection, and a malformed document is logged and treated as empty.
package kv

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Collection names used as key suffixes.
const (
	CollectionPlaylists       = "playlists"
	CollectionLiked           = "liked"
	CollectionRecent          = "recent"
	CollectionPlayCounts      = "playCounts"
	CollectionFollowedArtists = "followedArtists"
	CollectionSettings        = "settings"
)

// Key returns the storage key of a user's collection.
func Key(userID, collection string) string {
	return userID + ":" + collection
}

// loadJSON reads the document at key into out.
// Returns found=false for a missing or malformed document.
func loadJSON(ctx context.Context, store ports.KeyValueStore, logger *slog.Logger, key string, out any) (bool, error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, domain.NewRepositoryError("load", key, "store read failed", err)
	}
	if !ok || len(data) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("malformed document treated as empty",
			slog.String("key", key),
			slog.Any("error", err))
		return false, nil
	}
	return true, nil
}

// saveJSON replaces the document at key with value.
func saveJSON(ctx context.Context, store ports.KeyValueStore, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return domain.NewRepositoryError("save", key, "failed to marshal document", err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return domain.NewRepositoryError("save", key, "store write failed", err)
	}
	return nil
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
