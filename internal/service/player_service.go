// Package service provides the application services of GoStream.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/player"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// DefaultVolume is the device volume of a new session.
const DefaultVolume = 0.8

// PlayerService hosts one user's player session.
// It drives a player.Machine, commands the user's playback device and
// persists the play history after every transition.
//
// Transitions are serialised: the machine is mutated under the state lock,
// then the device is commanded and events are published outside it.
// Event handlers must not call back into the same session synchronously.
type PlayerService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	owner   string
	device  ports.PlaybackDevice
	history ports.HistoryRepository
	bus     ports.FilteringEventBus

	// State
	machine     *player.Machine
	recordPlays bool
	volume      float64
	endedSub    domain.SubscriptionID
	closed      bool

	// Concurrency control
	seq sync.Mutex   // serialises transitions with their device commands
	mu  sync.RWMutex // guards the state above
}

// transition is what the outside world needs to hear about after a track change.
type transition struct {
	track        domain.Track
	index        int
	playing      bool
	history      []domain.Track
	counts       map[string]domain.PlayCount
	queue        []domain.Track
	queueChanged bool
}

// NewPlayerService creates the session of owner and subscribes it to the
// owner's end-of-track notifications.
func NewPlayerService(
	logger *slog.Logger,
	owner string,
	opts player.Options,
	device ports.PlaybackDevice,
	history ports.HistoryRepository,
	bus ports.FilteringEventBus,
) *PlayerService {
	s := &PlayerService{
		logger:      logger.With(slog.String("service", "player"), slog.String("user", owner)),
		owner:       owner,
		device:      device,
		history:     history,
		bus:         bus,
		machine:     player.New(opts),
		recordPlays: opts.History,
		volume:      DefaultVolume,
	}

	s.endedSub = bus.SubscribeFiltered(domain.EventTrackEnded, ownedBy(owner), func(e domain.Event) {
		if ended, ok := e.(domain.TrackEndedEvent); ok {
			s.HandleTrackEnded(context.Background(), ended.URL)
		}
	})

	s.logger.Debug("player session created")
	return s
}

// ownedBy accepts events belonging to owner.
func ownedBy(owner string) ports.EventFilter {
	return func(e domain.Event) bool { return e.Owner() == owner }
}

// Owner returns the user the session belongs to.
func (s *PlayerService) Owner() string {
	return s.owner
}

// Restore loads the persisted history and play counts into the session.
func (s *PlayerService) Restore(ctx context.Context) error {
	history, err := s.history.LoadHistory(ctx, s.owner)
	if err != nil {
		return err
	}
	counts, err := s.history.LoadPlayCounts(ctx, s.owner)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.machine.RestoreHistory(history, counts)
	s.mu.Unlock()
	return nil
}

// SetCatalog installs the catalog used as the default play order.
// A session seeded with its first track loads it into the device paused.
func (s *PlayerService) SetCatalog(ctx context.Context, tracks []domain.Track) {
	s.seq.Lock()
	defer s.seq.Unlock()

	s.mu.Lock()
	_, hadTrack := s.machine.Current()
	s.machine.SetCatalog(tracks)
	seeded, hasTrack := s.machine.Current()
	state := s.machine.State()
	s.mu.Unlock()

	if hadTrack || !hasTrack {
		return
	}

	s.logger.Debug("session seeded", slog.String("track_id", seeded.ID))
	s.command("set_source", func() error { return s.device.SetSource(ctx, seeded.URL) })
	s.bus.Publish(domain.NewTrackChangedEvent(s.owner, seeded, state.CurrentIndex, false))
}

// Play plays track, keeping the current play order.
func (s *PlayerService) Play(ctx context.Context, track domain.Track) {
	s.transition(ctx, func(m *player.Machine) (bool, error) {
		m.Play(track)
		return true, nil
	})
}

// PlayAt plays track and replaces the play order with order, cursor at index.
func (s *PlayerService) PlayAt(ctx context.Context, track domain.Track, order []domain.Track, index int) error {
	_, err := s.transition(ctx, func(m *player.Machine) (bool, error) {
		if err := m.PlayAt(track, order, index); err != nil {
			return false, err
		}
		return true, nil
	})
	return err
}

// Next advances playback. Returns false when there was nothing to play.
func (s *PlayerService) Next(ctx context.Context) bool {
	changed, _ := s.transition(ctx, func(m *player.Machine) (bool, error) {
		return m.PlayNext(), nil
	})
	return changed
}

// Previous moves playback back. Returns false when the play order is empty.
func (s *PlayerService) Previous(ctx context.Context) bool {
	changed, _ := s.transition(ctx, func(m *player.Machine) (bool, error) {
		return m.PlayPrevious(), nil
	})
	return changed
}

// TogglePlayPause flips the play intent and returns the new intent.
// Without a current track nothing happens and false is returned.
func (s *PlayerService) TogglePlayPause(ctx context.Context) bool {
	s.seq.Lock()
	defer s.seq.Unlock()

	s.mu.Lock()
	toggled := s.machine.TogglePlayPause()
	playing := s.machine.IsPlaying()
	s.mu.Unlock()

	if !toggled {
		return false
	}

	if playing {
		s.command("play", func() error { return s.device.Play(ctx) })
	} else {
		s.command("pause", func() error { return s.device.Pause(ctx) })
	}
	s.bus.Publish(domain.NewPlaybackToggledEvent(s.owner, playing))
	return playing
}

// AddToQueue appends track to the override queue.
func (s *PlayerService) AddToQueue(track domain.Track) {
	s.mutateQueue(func(m *player.Machine) bool {
		m.AddToQueue(track)
		return true
	})
}

// RemoveFromQueue removes every queued entry of trackID and returns how many were removed.
func (s *PlayerService) RemoveFromQueue(trackID string) int {
	var removed int
	s.mutateQueue(func(m *player.Machine) bool {
		removed = m.RemoveFromQueue(trackID)
		return removed > 0
	})
	return removed
}

// ClearQueue empties the override queue.
func (s *PlayerService) ClearQueue() {
	s.mutateQueue(func(m *player.Machine) bool {
		if len(m.State().Queue) == 0 {
			return false
		}
		m.ClearQueue()
		return true
	})
}

// SetShuffle switches shuffle mode.
func (s *PlayerService) SetShuffle(on bool) error {
	return s.setMode(func(m *player.Machine) error { return m.SetShuffle(on) })
}

// SetRepeat switches repeat mode.
func (s *PlayerService) SetRepeat(on bool) error {
	return s.setMode(func(m *player.Machine) error { return m.SetRepeat(on) })
}

// Seek moves the device's position within the current track.
func (s *PlayerService) Seek(ctx context.Context, position time.Duration) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}

	s.seq.Lock()
	defer s.seq.Unlock()

	s.mu.RLock()
	_, ok := s.machine.Current()
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNoTrackLoaded
	}

	s.command("seek", func() error { return s.device.Seek(ctx, position) })
	return nil
}

// SetVolume sets the device volume (0.0 to 1.0).
func (s *PlayerService) SetVolume(ctx context.Context, volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.seq.Lock()
	defer s.seq.Unlock()

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	s.command("set_volume", func() error { return s.device.SetVolume(ctx, volume) })
	s.bus.Publish(domain.NewVolumeChangedEvent(s.owner, volume))
	return nil
}

// Volume returns the session's device volume.
func (s *PlayerService) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// State returns a snapshot of the session.
func (s *PlayerService) State() domain.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.machine.State()
}

// PlayCounts returns a copy of the session's play counts.
func (s *PlayerService) PlayCounts() map[string]domain.PlayCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.machine.PlayCounts()
}

// HandleTrackEnded resolves the device's end-of-track notification for url.
// Notifications for a source other than the current track are stale and ignored.
func (s *PlayerService) HandleTrackEnded(ctx context.Context, url string) {
	s.seq.Lock()
	defer s.seq.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	current, ok := s.machine.Current()
	if url != "" && (!ok || current.URL != url) {
		s.mu.Unlock()
		s.logger.Debug("ignoring stale end of track", slog.String("url", url))
		return
	}

	queueBefore := len(s.machine.State().Queue)
	action := s.machine.HandleSongEnd()
	var t transition
	if action == player.EndAdvanced {
		t = s.capture(queueBefore)
	}
	s.mu.Unlock()

	s.logger.Debug("track ended", slog.String("action", action.String()))

	switch action {
	case player.EndRestart:
		s.command("seek", func() error { return s.device.Seek(ctx, 0) })
		s.command("play", func() error { return s.device.Play(ctx) })
		s.bus.Publish(domain.NewPlaybackRestartedEvent(s.owner, current))
	case player.EndAdvanced:
		s.apply(ctx, t)
	}
}

// Shutdown detaches the session from the bus and closes its device.
func (s *PlayerService) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.bus.Unsubscribe(s.endedSub)
	if err := s.device.Close(); err != nil {
		s.logger.Warn("failed to close device", slog.Any("error", err))
	}
	s.logger.Debug("player session shut down")
}

// transition runs a track-changing machine operation and, when it changed
// the track, commands the device and publishes the result.
func (s *PlayerService) transition(ctx context.Context, op func(*player.Machine) (bool, error)) (bool, error) {
	s.seq.Lock()
	defer s.seq.Unlock()

	s.mu.Lock()
	queueBefore := len(s.machine.State().Queue)
	changed, err := op(s.machine)
	if err != nil || !changed {
		s.mu.Unlock()
		return false, err
	}
	t := s.capture(queueBefore)
	s.mu.Unlock()

	s.apply(ctx, t)
	return true, nil
}

// capture snapshots a transition (caller must hold the state lock).
func (s *PlayerService) capture(queueBefore int) transition {
	state := s.machine.State()
	return transition{
		track:        *state.CurrentTrack,
		index:        state.CurrentIndex,
		playing:      state.IsPlaying,
		history:      state.History,
		counts:       s.machine.PlayCounts(),
		queue:        state.Queue,
		queueChanged: len(state.Queue) != queueBefore,
	}
}

// apply commands the device, persists the history and publishes events for t.
func (s *PlayerService) apply(ctx context.Context, t transition) {
	s.command("set_source", func() error { return s.device.SetSource(ctx, t.track.URL) })
	if t.playing {
		s.command("play", func() error { return s.device.Play(ctx) })
	}

	s.bus.Publish(domain.NewTrackChangedEvent(s.owner, t.track, t.index, t.playing))
	if t.queueChanged {
		s.bus.Publish(domain.NewQueueChangedEvent(s.owner, t.queue))
	}

	if !s.recordPlays {
		return
	}
	s.persistHistory(ctx, t.history, t.counts)
	s.bus.Publish(domain.NewHistoryUpdatedEvent(s.owner, t.history))
}

func (s *PlayerService) persistHistory(ctx context.Context, history []domain.Track, counts map[string]domain.PlayCount) {
	if err := s.history.SaveHistory(ctx, s.owner, history); err != nil {
		s.logger.Error("failed to save history", slog.Any("error", err))
	}
	if err := s.history.SavePlayCounts(ctx, s.owner, counts); err != nil {
		s.logger.Error("failed to save play counts", slog.Any("error", err))
	}
}

// command issues a device command. Failures are logged and published,
// never rolled back into player state.
func (s *PlayerService) command(op string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("device command failed", slog.String("op", op), slog.Any("error", err))
		s.bus.Publish(domain.NewDeviceErrorEvent(s.owner, op, err))
	}
}

func (s *PlayerService) mutateQueue(op func(*player.Machine) bool) {
	s.mu.Lock()
	changed := op(s.machine)
	queue := s.machine.State().Queue
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.NewQueueChangedEvent(s.owner, queue))
	}
}

func (s *PlayerService) setMode(op func(*player.Machine) error) error {
	s.mu.Lock()
	if err := op(s.machine); err != nil {
		s.mu.Unlock()
		return err
	}
	state := s.machine.State()
	s.mu.Unlock()

	s.bus.Publish(domain.NewModeChangedEvent(s.owner, state.Shuffle, state.Repeat))
	return nil
}
