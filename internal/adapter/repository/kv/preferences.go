package kv

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// PreferencesRepository implements ports.PreferencesRepository.
// Preferences are stored as one JSON object at "<user>:settings".
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	store  ports.KeyValueStore
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewPreferencesRepository creates a new preferences repository.
func NewPreferencesRepository(store ports.KeyValueStore, logger *slog.Logger) *PreferencesRepository {
	return &PreferencesRepository{
		store:  store,
		logger: orDefault(logger),
	}
}

// Load retrieves the saved preferences.
func (r *PreferencesRepository) Load(ctx context.Context, userID string) (domain.Preferences, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var prefs domain.Preferences
	found, err := loadJSON(ctx, r.store, r.logger, Key(userID, CollectionSettings), &prefs)
	if err != nil || !found {
		return domain.Preferences{}, false, err
	}
	return prefs, true, nil
}

// Save persists the preferences.
func (r *PreferencesRepository) Save(ctx context.Context, userID string, prefs domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return saveJSON(ctx, r.store, Key(userID, CollectionSettings), prefs)
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
