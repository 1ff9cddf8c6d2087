// Package player implements the playback and queue state machine of a session.
//
// A Machine decides what should be playing and what plays next. It performs
// no I/O and is not goroutine-safe; the session host serialises access and
// commands the playback device after each transition.
package player

import (
	"math/rand"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/gostream/internal/domain"
)

// HistoryLimit caps the recently played list.
const HistoryLimit = 50

// EndAction tells the host how a track end was resolved.
type EndAction int

const (
	// EndIdle means nothing was left to play.
	EndIdle EndAction = iota

	// EndAdvanced means a new current track was selected.
	EndAdvanced

	// EndRestart means the current track should be replayed from position 0.
	EndRestart
)

// String returns a human-readable representation of the end action.
func (a EndAction) String() string {
	switch a {
	case EndIdle:
		return "idle"
	case EndAdvanced:
		return "advanced"
	case EndRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// Options gate the optional capabilities of a Machine.
type Options struct {
	// Shuffle allows shuffle mode to be switched on
	Shuffle bool

	// Repeat allows repeat mode to be switched on
	Repeat bool

	// History enables the recently played list and play counts
	History bool

	// AutoSeed loads the first catalog track (paused) when nothing is current
	AutoSeed bool

	// IntN returns a uniform random int in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

// DefaultOptions enables every capability.
func DefaultOptions() Options {
	return Options{
		Shuffle:  true,
		Repeat:   true,
		History:  true,
		AutoSeed: true,
		IntN:     rand.Intn,
	}
}

// Machine is the player state machine of a single session.
type Machine struct {
	opts Options

	catalog []domain.Track

	current *domain.Track
	playing bool

	// order and index form the play order; explicitOrder is false while the
	// order is the lazily defaulted catalog
	order         []domain.Track
	index         int
	explicitOrder bool

	queue []domain.Track

	shuffle bool
	repeat  bool

	history []domain.Track
	counts  map[string]domain.PlayCount
}

// New creates an idle Machine.
func New(opts Options) *Machine {
	if opts.IntN == nil {
		opts.IntN = rand.Intn
	}
	return &Machine{
		opts:    opts,
		history: make([]domain.Track, 0),
		counts:  make(map[string]domain.PlayCount),
	}
}

// SetCatalog replaces the catalog used as the default play order.
// With AutoSeed and no current track, the first catalog track is loaded paused.
func (m *Machine) SetCatalog(tracks []domain.Track) {
	m.catalog = slices.Clone(tracks)
	if !m.explicitOrder {
		m.order = nil
	}

	if m.opts.AutoSeed && m.current == nil && len(m.catalog) > 0 {
		seed := m.catalog[0]
		m.current = &seed
		m.playing = false
		m.index = 0
	}
}

// Play makes track current and playing. The cursor moves to the track's
// position in the play order, or 0 when it is not part of it.
// Unknown tracks are accepted as given.
func (m *Machine) Play(track domain.Track) {
	m.ensureOrder()
	m.index = max(0, indexOf(m.order, track.ID))
	m.load(track)
}

// PlayAt makes track current and playing, replacing the play order and
// moving the cursor to index. An empty order or an out-of-range index is
// rejected with domain.ErrInvalidIndex and leaves the state unchanged.
func (m *Machine) PlayAt(track domain.Track, order []domain.Track, index int) error {
	if index < 0 || index >= len(order) {
		return errors.Wrapf(domain.ErrInvalidIndex, "index %d of %d", index, len(order))
	}

	m.order = slices.Clone(order)
	m.explicitOrder = true
	m.index = index
	m.load(track)
	return nil
}

// PlayNext advances playback. Repeat restarts the current track, then the
// queue head is consumed, then the play order cursor advances (randomly under
// shuffle, wrapping at the end otherwise).
// Returns false when there was nothing to play.
func (m *Machine) PlayNext() bool {
	if m.repeat && m.current != nil {
		m.Play(*m.current)
		return true
	}

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = slices.Clone(m.queue[1:])
		m.load(next)
		return true
	}

	m.ensureOrder()
	n := len(m.order)
	if n == 0 {
		return false
	}

	next := (m.index + 1) % n
	if m.shuffle {
		next = m.randomIndex()
	}
	m.index = next
	m.load(m.order[next])
	return true
}

// PlayPrevious moves the cursor back (randomly under shuffle, wrapping at the
// start otherwise). The queue is never consulted.
// Returns false when the play order is empty.
func (m *Machine) PlayPrevious() bool {
	m.ensureOrder()
	n := len(m.order)
	if n == 0 {
		return false
	}

	prev := (m.index - 1 + n) % n
	if m.shuffle {
		prev = m.randomIndex()
	}
	m.index = prev
	m.load(m.order[prev])
	return true
}

// TogglePlayPause flips the play intent. Without a current track it is a no-op
// and returns false.
func (m *Machine) TogglePlayPause() bool {
	if m.current == nil {
		return false
	}
	m.playing = !m.playing
	return true
}

// AddToQueue appends track to the queue. Duplicates are allowed.
func (m *Machine) AddToQueue(track domain.Track) {
	m.queue = append(m.queue, track)
}

// RemoveFromQueue removes every queue entry with the given id and returns
// how many were removed.
func (m *Machine) RemoveFromQueue(trackID string) int {
	before := len(m.queue)
	m.queue = lo.Reject(m.queue, func(t domain.Track, _ int) bool {
		return t.ID == trackID
	})
	return before - len(m.queue)
}

// ClearQueue empties the queue.
func (m *Machine) ClearQueue() {
	m.queue = nil
}

// HandleSongEnd resolves the device's end-of-track notification.
// Under repeat the current track restarts without a history entry;
// otherwise playback advances as PlayNext does.
func (m *Machine) HandleSongEnd() EndAction {
	if m.repeat && m.current != nil {
		m.playing = true
		return EndRestart
	}
	if m.PlayNext() {
		return EndAdvanced
	}
	return EndIdle
}

// SetShuffle switches shuffle mode.
func (m *Machine) SetShuffle(on bool) error {
	if on && !m.opts.Shuffle {
		return errors.Wrap(domain.ErrFeatureDisabled, "shuffle")
	}
	m.shuffle = on
	return nil
}

// SetRepeat switches repeat mode.
func (m *Machine) SetRepeat(on bool) error {
	if on && !m.opts.Repeat {
		return errors.Wrap(domain.ErrFeatureDisabled, "repeat")
	}
	m.repeat = on
	return nil
}

// RestoreHistory installs a previously persisted history and play counts.
// The history is deduplicated and capped on the way in.
func (m *Machine) RestoreHistory(history []domain.Track, counts map[string]domain.PlayCount) {
	if !m.opts.History {
		return
	}

	restored := lo.UniqBy(history, func(t domain.Track) string { return t.ID })
	if len(restored) > HistoryLimit {
		restored = restored[:HistoryLimit]
	}
	m.history = restored

	m.counts = make(map[string]domain.PlayCount, len(counts))
	for id, pc := range counts {
		m.counts[id] = pc
	}
}

// Current returns the current track.
func (m *Machine) Current() (domain.Track, bool) {
	if m.current == nil {
		return domain.Track{}, false
	}
	return *m.current, true
}

// IsPlaying returns the play intent.
func (m *Machine) IsPlaying() bool {
	return m.playing
}

// History returns a copy of the most-recent-first history.
func (m *Machine) History() []domain.Track {
	return slices.Clone(m.history)
}

// PlayCounts returns a copy of the play counts.
func (m *Machine) PlayCounts() map[string]domain.PlayCount {
	out := make(map[string]domain.PlayCount, len(m.counts))
	for id, pc := range m.counts {
		out[id] = pc
	}
	return out
}

// State returns a snapshot of the session. The snapshot shares nothing with the Machine.
func (m *Machine) State() domain.PlayerState {
	state := domain.PlayerState{
		IsPlaying:    m.playing,
		PlayOrder:    cloneOrEmpty(m.order),
		CurrentIndex: m.index,
		Queue:        cloneOrEmpty(m.queue),
		Shuffle:      m.shuffle,
		Repeat:       m.repeat,
		History:      cloneOrEmpty(m.history),
	}
	if m.current != nil {
		current := *m.current
		state.CurrentTrack = &current
	}
	return state
}

// load makes track current and playing and records the play.
func (m *Machine) load(track domain.Track) {
	m.current = &track
	m.playing = true
	m.record(track)
}

// record pushes track to the front of the history and bumps its play count.
func (m *Machine) record(track domain.Track) {
	if !m.opts.History {
		return
	}

	history := make([]domain.Track, 0, min(len(m.history)+1, HistoryLimit))
	history = append(history, track)
	for _, t := range m.history {
		if len(history) == HistoryLimit {
			break
		}
		if t.ID != track.ID {
			history = append(history, t)
		}
	}
	m.history = history

	pc := m.counts[track.ID]
	pc.Track = track
	pc.Count++
	m.counts[track.ID] = pc
}

// ensureOrder defaults an empty play order to the catalog.
func (m *Machine) ensureOrder() {
	if len(m.order) > 0 || len(m.catalog) == 0 {
		return
	}
	m.order = slices.Clone(m.catalog)
	m.explicitOrder = false
	m.index = 0
	if m.current != nil {
		m.index = max(0, indexOf(m.order, m.current.ID))
	}
}

// randomIndex draws a uniform index of the play order, excluding the
// cursor when there is more than one track.
func (m *Machine) randomIndex() int {
	n := len(m.order)
	if n == 1 {
		return 0
	}
	i := m.opts.IntN(n - 1)
	if i >= m.index {
		i++
	}
	return i
}

func indexOf(tracks []domain.Track, id string) int {
	return slices.IndexFunc(tracks, func(t domain.Track) bool { return t.ID == id })
}

func cloneOrEmpty(tracks []domain.Track) []domain.Track {
	if len(tracks) == 0 {
		return []domain.Track{}
	}
	return slices.Clone(tracks)
}
