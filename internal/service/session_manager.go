package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/player"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// TrackLister provides the current catalog.
type TrackLister interface {
	Tracks() []domain.Track
}

// SessionManager owns the player sessions, one per user, created on first use.
// Sessions follow catalog reloads.
type SessionManager struct {
	// Dependencies (injected)
	logger  *slog.Logger
	bus     ports.FilteringEventBus
	library TrackLister
	devices ports.DeviceFactory
	history ports.HistoryRepository
	opts    player.Options

	// State
	sessions   map[string]*PlayerService
	catalogSub domain.SubscriptionID
	closed     bool

	// Concurrency control
	mu sync.RWMutex
}

// NewSessionManager creates a session manager.
func NewSessionManager(
	logger *slog.Logger,
	bus ports.FilteringEventBus,
	library TrackLister,
	devices ports.DeviceFactory,
	history ports.HistoryRepository,
	opts player.Options,
) *SessionManager {
	m := &SessionManager{
		logger:   logger.With(slog.String("service", "sessions")),
		bus:      bus,
		library:  library,
		devices:  devices,
		history:  history,
		opts:     opts,
		sessions: make(map[string]*PlayerService),
	}

	m.catalogSub = bus.Subscribe(domain.EventCatalogLoaded, func(domain.Event) {
		m.refreshCatalog(context.Background())
	})
	return m
}

// Session returns the user's session, creating it on first use.
// A new session restores its history and is seeded with the current catalog.
func (m *SessionManager) Session(ctx context.Context, userID string) (*PlayerService, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	m.mu.RLock()
	session, ok := m.sessions[userID]
	closed := m.closed
	m.mu.RUnlock()
	if ok {
		return session, nil
	}
	if closed {
		return nil, domain.NewServiceError("SessionManager", "Session", "session manager shut down", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another request may have created it meanwhile.
	if session, ok := m.sessions[userID]; ok {
		return session, nil
	}

	device, err := m.devices(userID)
	if err != nil {
		return nil, errors.Wrapf(err, "create device for %s", userID)
	}

	session = NewPlayerService(m.logger, userID, m.opts, device, m.history, m.bus)
	if err := session.Restore(ctx); err != nil {
		m.logger.Warn("failed to restore history", slog.String("user", userID), slog.Any("error", err))
	}
	session.SetCatalog(ctx, m.library.Tracks())

	m.sessions[userID] = session
	m.logger.Info("player session started", slog.String("user", userID))
	return session, nil
}

// Lookup returns an existing session without creating one.
func (m *SessionManager) Lookup(userID string) (*PlayerService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[userID]
	return session, ok
}

// Users returns the users with a live session, sorted.
func (m *SessionManager) Users() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		users = append(users, id)
	}
	slices.Sort(users)
	return users
}

// Shutdown stops every session.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*PlayerService)
	m.mu.Unlock()

	m.bus.Unsubscribe(m.catalogSub)
	for _, session := range sessions {
		session.Shutdown()
	}
	m.logger.Debug("session manager shut down", slog.Int("sessions", len(sessions)))
}

func (m *SessionManager) refreshCatalog(ctx context.Context) {
	tracks := m.library.Tracks()

	m.mu.RLock()
	sessions := make([]*PlayerService, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	for _, session := range sessions {
		session.SetCatalog(ctx, tracks)
	}
	m.logger.Debug("sessions refreshed with new catalog", slog.Int("tracks", len(tracks)), slog.Int("sessions", len(sessions)))
}
