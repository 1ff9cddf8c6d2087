package service

import (
	"context"
	"sync"
	"testing"

	"github.com/tejashwikalptaru/gostream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/gostream/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage/memory"
	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/logger"
)

// Helper to create a test track
func createTestTrack(id, title, artist string) domain.Track {
	return domain.Track{
		ID:     id,
		Title:  title,
		Artist: artist,
		URL:    "/songs/" + id + ".mp3",
		Cover:  "/covers/" + id + ".jpg",
	}
}

// staticSource is a CatalogSource returning fixed tracks.
type staticSource struct {
	mu     sync.Mutex
	tracks []domain.Track
	err    error
}

func (s *staticSource) Load(context.Context) ([]domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks, s.err
}

func (s *staticSource) set(tracks []domain.Track, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks, s.err = tracks, err
}

// eventRecorder collects every event published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(bus *eventbus.SyncEventBus) *eventRecorder {
	r := &eventRecorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *eventRecorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv bundles a bus and kv repositories over one memory store.
type testEnv struct {
	bus       *eventbus.SyncEventBus
	store     *memory.Store
	playlists *kv.PlaylistRepository
	likes     *kv.SetRepository
	follows   *kv.SetRepository
	history   *kv.HistoryRepository
	prefs     *kv.PreferencesRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	store := memory.New()
	log := logger.NewTestLogger()
	return &testEnv{
		bus:       bus,
		store:     store,
		playlists: kv.NewPlaylistRepository(store, log),
		likes:     kv.NewLikeRepository(store, log),
		follows:   kv.NewFollowRepository(store, log),
		history:   kv.NewHistoryRepository(store, log),
		prefs:     kv.NewPreferencesRepository(store, log),
	}
}
