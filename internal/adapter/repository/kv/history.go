package kv

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// HistoryRepository implements ports.HistoryRepository.
// The recently played list lives at "<user>:recent" and the play counts at
// "<user>:playCounts".
//
// Thread-safe: All operations protected by sync.RWMutex.
type HistoryRepository struct {
	store  ports.KeyValueStore
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(store ports.KeyValueStore, logger *slog.Logger) *HistoryRepository {
	return &HistoryRepository{
		store:  store,
		logger: orDefault(logger),
	}
}

// LoadHistory retrieves the most-recent-first history.
func (r *HistoryRepository) LoadHistory(ctx context.Context, userID string) ([]domain.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var history []domain.Track
	found, err := loadJSON(ctx, r.store, r.logger, Key(userID, CollectionRecent), &history)
	if err != nil {
		return nil, err
	}
	if !found || history == nil {
		return []domain.Track{}, nil
	}
	return history, nil
}

// SaveHistory replaces the history.
func (r *HistoryRepository) SaveHistory(ctx context.Context, userID string, history []domain.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if history == nil {
		history = []domain.Track{}
	}
	return saveJSON(ctx, r.store, Key(userID, CollectionRecent), history)
}

// LoadPlayCounts retrieves the play counts keyed by track id.
func (r *HistoryRepository) LoadPlayCounts(ctx context.Context, userID string) (map[string]domain.PlayCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts map[string]domain.PlayCount
	found, err := loadJSON(ctx, r.store, r.logger, Key(userID, CollectionPlayCounts), &counts)
	if err != nil {
		return nil, err
	}
	if !found || counts == nil {
		return map[string]domain.PlayCount{}, nil
	}
	return counts, nil
}

// SavePlayCounts replaces the play counts.
func (r *HistoryRepository) SavePlayCounts(ctx context.Context, userID string, counts map[string]domain.PlayCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if counts == nil {
		counts = map[string]domain.PlayCount{}
	}
	return saveJSON(ctx, r.store, Key(userID, CollectionPlayCounts), counts)
}

// Verify interface implementation
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
