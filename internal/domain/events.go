// Package domain defines events for the event-driven architecture.
// Events decouple the player, collections and devices from the transports that render them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time

	// Owner returns the user the event belongs to ("" for global events)
	Owner() string
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Catalog events
	EventCatalogLoaded EventType = "catalog.loaded"

	// Player events
	EventTrackChanged      EventType = "player.track_changed"
	EventPlaybackToggled   EventType = "player.playback_toggled"
	EventQueueChanged      EventType = "player.queue_changed"
	EventModeChanged       EventType = "player.mode_changed"
	EventHistoryUpdated    EventType = "player.history_updated"
	EventVolumeChanged     EventType = "player.volume_changed"
	EventPlaybackRestarted EventType = "player.restarted"

	// Device events
	EventDeviceCommand  EventType = "device.command"
	EventDeviceProgress EventType = "device.progress"
	EventTrackEnded     EventType = "device.ended"
	EventDeviceError    EventType = "device.error"

	// Collection events
	EventPlaylistChanged EventType = "collection.playlist_changed"
	EventLikeToggled     EventType = "collection.like_toggled"
	EventFollowToggled   EventType = "collection.follow_toggled"

	// Settings events
	EventPreferencesChanged EventType = "settings.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
	owner     string
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// Owner returns the user the event belongs to.
func (e baseEvent) Owner() string {
	return e.owner
}

func newBaseEvent(owner string) baseEvent {
	return baseEvent{timestamp: time.Now(), owner: owner}
}

// CatalogLoadedEvent is published after the catalog is (re)loaded.
type CatalogLoadedEvent struct {
	baseEvent
	Count int `json:"count"`
}

// Type returns the event type.
func (e CatalogLoadedEvent) Type() EventType { return EventCatalogLoaded }

// NewCatalogLoadedEvent creates a new CatalogLoadedEvent.
func NewCatalogLoadedEvent(count int) CatalogLoadedEvent {
	return CatalogLoadedEvent{baseEvent: newBaseEvent(""), Count: count}
}

// TrackChangedEvent is published when a session's current track changes.
type TrackChangedEvent struct {
	baseEvent
	Track     Track `json:"track"`
	Index     int   `json:"index"`
	IsPlaying bool  `json:"isPlaying"`
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType { return EventTrackChanged }

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(owner string, track Track, index int, playing bool) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent: newBaseEvent(owner),
		Track:     track,
		Index:     index,
		IsPlaying: playing,
	}
}

// PlaybackToggledEvent is published when play/pause intent flips.
type PlaybackToggledEvent struct {
	baseEvent
	IsPlaying bool `json:"isPlaying"`
}

// Type returns the event type.
func (e PlaybackToggledEvent) Type() EventType { return EventPlaybackToggled }

// NewPlaybackToggledEvent creates a new PlaybackToggledEvent.
func NewPlaybackToggledEvent(owner string, playing bool) PlaybackToggledEvent {
	return PlaybackToggledEvent{baseEvent: newBaseEvent(owner), IsPlaying: playing}
}

// PlaybackRestartedEvent is published when repeat restarts the current track.
type PlaybackRestartedEvent struct {
	baseEvent
	Track Track `json:"track"`
}

// Type returns the event type.
func (e PlaybackRestartedEvent) Type() EventType { return EventPlaybackRestarted }

// NewPlaybackRestartedEvent creates a new PlaybackRestartedEvent.
func NewPlaybackRestartedEvent(owner string, track Track) PlaybackRestartedEvent {
	return PlaybackRestartedEvent{baseEvent: newBaseEvent(owner), Track: track}
}

// QueueChangedEvent is published when the override queue changes.
type QueueChangedEvent struct {
	baseEvent
	Queue []Track `json:"queue"`
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType { return EventQueueChanged }

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(owner string, queue []Track) QueueChangedEvent {
	return QueueChangedEvent{baseEvent: newBaseEvent(owner), Queue: queue}
}

// ModeChangedEvent is published when shuffle or repeat changes.
type ModeChangedEvent struct {
	baseEvent
	Shuffle bool `json:"shuffle"`
	Repeat  bool `json:"repeat"`
}

// Type returns the event type.
func (e ModeChangedEvent) Type() EventType { return EventModeChanged }

// NewModeChangedEvent creates a new ModeChangedEvent.
func NewModeChangedEvent(owner string, shuffle, repeat bool) ModeChangedEvent {
	return ModeChangedEvent{baseEvent: newBaseEvent(owner), Shuffle: shuffle, Repeat: repeat}
}

// HistoryUpdatedEvent is published after the recently played list changes.
type HistoryUpdatedEvent struct {
	baseEvent
	History []Track `json:"history"`
}

// Type returns the event type.
func (e HistoryUpdatedEvent) Type() EventType { return EventHistoryUpdated }

// NewHistoryUpdatedEvent creates a new HistoryUpdatedEvent.
func NewHistoryUpdatedEvent(owner string, history []Track) HistoryUpdatedEvent {
	return HistoryUpdatedEvent{baseEvent: newBaseEvent(owner), History: history}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 `json:"volume"`
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType { return EventVolumeChanged }

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(owner string, volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(owner), Volume: volume}
}

// DeviceCommand names a command sent to a playback device.
type DeviceCommand string

const (
	CommandSetSource DeviceCommand = "set_source"
	CommandPlay      DeviceCommand = "play"
	CommandPause     DeviceCommand = "pause"
	CommandSeek      DeviceCommand = "seek"
	CommandSetVolume DeviceCommand = "set_volume"
)

// DeviceCommandEvent carries a command to a remote playback device.
type DeviceCommandEvent struct {
	baseEvent
	Command  DeviceCommand `json:"command"`
	URL      string        `json:"url,omitempty"`
	Position float64       `json:"position,omitempty"` // seconds
	Volume   float64       `json:"volume,omitempty"`
}

// Type returns the event type.
func (e DeviceCommandEvent) Type() EventType { return EventDeviceCommand }

// NewDeviceCommandEvent creates a new DeviceCommandEvent.
func NewDeviceCommandEvent(owner string, cmd DeviceCommand) DeviceCommandEvent {
	return DeviceCommandEvent{baseEvent: newBaseEvent(owner), Command: cmd}
}

// DeviceProgressEvent is the device's time update notification.
type DeviceProgressEvent struct {
	baseEvent
	Current  time.Duration `json:"current"`
	Duration time.Duration `json:"duration"`
}

// Type returns the event type.
func (e DeviceProgressEvent) Type() EventType { return EventDeviceProgress }

// NewDeviceProgressEvent creates a new DeviceProgressEvent.
func NewDeviceProgressEvent(owner string, current, duration time.Duration) DeviceProgressEvent {
	return DeviceProgressEvent{baseEvent: newBaseEvent(owner), Current: current, Duration: duration}
}

// TrackEndedEvent is the device's end-of-track notification.
type TrackEndedEvent struct {
	baseEvent
	URL string `json:"url"`
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType { return EventTrackEnded }

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(owner, url string) TrackEndedEvent {
	return TrackEndedEvent{baseEvent: newBaseEvent(owner), URL: url}
}

// DeviceErrorEvent is published when a device command fails.
type DeviceErrorEvent struct {
	baseEvent
	Op    string `json:"op"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Type returns the event type.
func (e DeviceErrorEvent) Type() EventType { return EventDeviceError }

// NewDeviceErrorEvent creates a new DeviceErrorEvent.
func NewDeviceErrorEvent(owner, op string, err error) DeviceErrorEvent {
	return DeviceErrorEvent{baseEvent: newBaseEvent(owner), Op: op, Error: err.Error(), Err: err}
}

// PlaylistAction describes what happened to a playlist.
type PlaylistAction string

const (
	PlaylistCreated PlaylistAction = "created"
	PlaylistUpdated PlaylistAction = "updated"
	PlaylistDeleted PlaylistAction = "deleted"
)

// PlaylistChangedEvent is published after a playlist mutation.
type PlaylistChangedEvent struct {
	baseEvent
	Action   PlaylistAction `json:"action"`
	Playlist Playlist       `json:"playlist"`
}

// Type returns the event type.
func (e PlaylistChangedEvent) Type() EventType { return EventPlaylistChanged }

// NewPlaylistChangedEvent creates a new PlaylistChangedEvent.
func NewPlaylistChangedEvent(owner string, action PlaylistAction, playlist Playlist) PlaylistChangedEvent {
	return PlaylistChangedEvent{baseEvent: newBaseEvent(owner), Action: action, Playlist: playlist}
}

// LikeToggledEvent is published after a like toggle.
type LikeToggledEvent struct {
	baseEvent
	TrackID string `json:"trackId"`
	Liked   bool   `json:"liked"`
}

// Type returns the event type.
func (e LikeToggledEvent) Type() EventType { return EventLikeToggled }

// NewLikeToggledEvent creates a new LikeToggledEvent.
func NewLikeToggledEvent(owner, trackID string, liked bool) LikeToggledEvent {
	return LikeToggledEvent{baseEvent: newBaseEvent(owner), TrackID: trackID, Liked: liked}
}

// FollowToggledEvent is published after an artist follow toggle.
type FollowToggledEvent struct {
	baseEvent
	Artist   string `json:"artist"`
	Followed bool   `json:"followed"`
}

// Type returns the event type.
func (e FollowToggledEvent) Type() EventType { return EventFollowToggled }

// NewFollowToggledEvent creates a new FollowToggledEvent.
func NewFollowToggledEvent(owner, artist string, followed bool) FollowToggledEvent {
	return FollowToggledEvent{baseEvent: newBaseEvent(owner), Artist: artist, Followed: followed}
}

// PreferencesChangedEvent is published after settings are saved.
type PreferencesChangedEvent struct {
	baseEvent
	Preferences Preferences `json:"preferences"`
}

// Type returns the event type.
func (e PreferencesChangedEvent) Type() EventType { return EventPreferencesChanged }

// NewPreferencesChangedEvent creates a new PreferencesChangedEvent.
func NewPreferencesChangedEvent(owner string, prefs Preferences) PreferencesChangedEvent {
	return PreferencesChangedEvent{baseEvent: newBaseEvent(owner), Preferences: prefs}
}
