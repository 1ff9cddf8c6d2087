package kv

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// SetRepository implements ports.SetRepository for one collection name,
// such as liked track ids or followed artists.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SetRepository struct {
	store      ports.KeyValueStore
	collection string
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewSetRepository creates a repository for the named collection.
func NewSetRepository(store ports.KeyValueStore, collection string, logger *slog.Logger) *SetRepository {
	return &SetRepository{
		store:      store,
		collection: collection,
		logger:     orDefault(logger),
	}
}

// NewLikeRepository creates the repository of liked track ids.
func NewLikeRepository(store ports.KeyValueStore, logger *slog.Logger) *SetRepository {
	return NewSetRepository(store, CollectionLiked, logger)
}

// NewFollowRepository creates the repository of followed artist names.
func NewFollowRepository(store ports.KeyValueStore, logger *slog.Logger) *SetRepository {
	return NewSetRepository(store, CollectionFollowedArtists, logger)
}

// Load retrieves the set. Duplicate members in a stored document are collapsed.
func (r *SetRepository) Load(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []string
	found, err := loadJSON(ctx, r.store, r.logger, Key(userID, r.collection), &members)
	if err != nil {
		return nil, err
	}
	if !found || members == nil {
		return []string{}, nil
	}
	return lo.Uniq(members), nil
}

// Save replaces the set.
func (r *SetRepository) Save(ctx context.Context, userID string, members []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return saveJSON(ctx, r.store, Key(userID, r.collection), lo.Uniq(members))
}

// Verify interface implementation
var _ ports.SetRepository = (*SetRepository)(nil)
