package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// PreferencesPatch carries a partial settings update. Nil fields are left unchanged.
type PreferencesPatch struct {
	Theme           *string `json:"theme,omitempty"`
	Autoplay        *bool   `json:"autoplay,omitempty"`
	Notifications   *bool   `json:"notifications,omitempty"`
	Language        *string `json:"language,omitempty"`
	Volume          *int    `json:"volume,omitempty"`
	DownloadQuality *string `json:"downloadQuality,omitempty"`
}

// apply returns prefs with the patch applied.
func (p PreferencesPatch) apply(prefs domain.Preferences) domain.Preferences {
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	if p.Autoplay != nil {
		prefs.Autoplay = *p.Autoplay
	}
	if p.Notifications != nil {
		prefs.Notifications = *p.Notifications
	}
	if p.Language != nil {
		prefs.Language = *p.Language
	}
	if p.Volume != nil {
		prefs.Volume = *p.Volume
	}
	if p.DownloadQuality != nil {
		prefs.DownloadQuality = *p.DownloadQuality
	}
	return prefs
}

// DefaultPreferences returns the settings of a user who never saved any.
func DefaultPreferences() domain.Preferences {
	var prefs domain.Preferences
	// Only fails for non-pointer input.
	_ = defaults.Set(&prefs)
	return prefs
}

// PreferenceService manages per-user settings.
// Loaded settings are cached; all operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus
	validate   *validator.Validate

	// Cached preferences (for performance)
	cache map[string]domain.Preferences

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	return &PreferenceService{
		logger:     logger.With(slog.String("service", "preferences")),
		repository: repository,
		bus:        bus,
		validate:   validator.New(),
		cache:      make(map[string]domain.Preferences),
	}
}

// Get returns the user's settings, or the defaults when none were saved.
func (s *PreferenceService) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	s.mu.RLock()
	prefs, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return prefs, nil
	}

	prefs, found, err := s.repository.Load(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	if !found {
		prefs = DefaultPreferences()
	} else if err := s.Validate(prefs); err != nil {
		s.logger.Warn("stored settings invalid, using defaults", slog.String("user", userID), slog.Any("error", err))
		prefs = DefaultPreferences()
	}

	s.mu.Lock()
	s.cache[userID] = prefs
	s.mu.Unlock()
	return prefs, nil
}

// Update applies patch, validates the result and saves it.
func (s *PreferenceService) Update(ctx context.Context, userID string, patch PreferencesPatch) (domain.Preferences, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}

	updated := patch.apply(current)
	if err := s.Validate(updated); err != nil {
		return domain.Preferences{}, err
	}

	return updated, s.save(ctx, userID, updated)
}

// Reset restores the defaults.
func (s *PreferenceService) Reset(ctx context.Context, userID string) (domain.Preferences, error) {
	prefs := DefaultPreferences()
	return prefs, s.save(ctx, userID, prefs)
}

// Validate checks prefs against the field constraints.
// The first violation is reported as a domain.ValidationError.
func (s *PreferenceService) Validate(prefs domain.Preferences) error {
	err := s.validate.Struct(prefs)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(fe.Field(), fe.Value(), "failed "+fe.Tag()+" constraint")
	}
	return errors.Wrap(err, "validate preferences")
}

func (s *PreferenceService) save(ctx context.Context, userID string, prefs domain.Preferences) error {
	if err := s.repository.Save(ctx, userID, prefs); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[userID] = prefs
	s.mu.Unlock()

	s.logger.Debug("settings saved", slog.String("user", userID))
	s.bus.Publish(domain.NewPreferencesChangedEvent(userID, prefs))
	return nil
}
