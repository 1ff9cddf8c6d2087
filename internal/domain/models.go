// Package domain contains core business models and logic with no infrastructure dependencies.
// This package defines the fundamental entities of the GoStream music service.
package domain

import (
	"strings"
	"time"
)

// Track is a single catalog entry. Tracks are created once when the catalog
// is loaded and are never mutated afterward.
type Track struct {
	// ID is the stable, opaque identifier of the track
	ID string `json:"id" validate:"required"`

	// Title is the song title
	Title string `json:"title" validate:"required"`

	// Artist is free text and may name several collaborators
	Artist string `json:"artist"`

	// Cover locates the artwork resource
	Cover string `json:"cover,omitempty"`

	// URL locates the audio resource
	URL string `json:"url" validate:"required"`

	// Mood is a small tag used for theming (romantic, party, ...)
	Mood string `json:"mood,omitempty"`

	// Album is filled when the track comes from a tag scan
	Album string `json:"album,omitempty"`

	// Duration is filled when the source knows it
	Duration time.Duration `json:"duration,omitempty"`
}

// artistSeparators are the collaborator separators seen in catalog artist fields.
var artistSeparators = []string{" feat. ", " ft. ", " featuring ", " x ", " and ", "&", ","}

// Artists splits the artist field into individual collaborator names.
// Empty parts are dropped; order and first spelling are preserved.
func (t Track) Artists() []string {
	parts := []string{t.Artist}
	for _, sep := range artistSeparators {
		next := make([]string, 0, len(parts))
		for _, p := range parts {
			next = append(next, splitFold(p, sep)...)
		}
		parts = next
	}

	names := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// HasArtist reports whether name is one of the track's collaborators (case-insensitive).
func (t Track) HasArtist(name string) bool {
	for _, a := range t.Artists() {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// Matches reports whether the query is a case-insensitive substring of the
// title, the artist or the mood. An empty query matches everything.
func (t Track) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Artist), q) ||
		strings.Contains(strings.ToLower(t.Mood), q)
}

// splitFold splits s on sep, ignoring case.
func splitFold(s, sep string) []string {
	lower := strings.ToLower(s)
	sep = strings.ToLower(sep)
	if len(lower) != len(s) {
		return strings.Split(s, sep)
	}
	var out []string
	for {
		i := strings.Index(lower, sep)
		if i < 0 {
			return append(out, s)
		}
		out = append(out, s[:i])
		s = s[i+len(sep):]
		lower = lower[i+len(sep):]
	}
}

// Playlist is a user-named ordered collection of tracks, unique by track ID.
type Playlist struct {
	// ID is a unique identifier for the playlist (UUID)
	ID string `json:"id"`

	// Name is the playlist name
	Name string `json:"name"`

	// Songs is the ordered list of tracks in the playlist
	Songs []Track `json:"songs"`

	// CreatedAt is when the playlist was created
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the playlist was last modified
	UpdatedAt time.Time `json:"updatedAt"`
}

// IndexOf returns the position of the track with the given ID, or -1.
func (p Playlist) IndexOf(trackID string) int {
	for i, s := range p.Songs {
		if s.ID == trackID {
			return i
		}
	}
	return -1
}

// PlayerState is a snapshot of a player session.
// Slices in a snapshot are copies and may be retained by the caller.
type PlayerState struct {
	// CurrentTrack is the track loaded into the device (nil if idle)
	CurrentTrack *Track `json:"currentTrack"`

	// IsPlaying is the user's intent, not the device's buffering state
	IsPlaying bool `json:"isPlaying"`

	// PlayOrder is the sequence traversed by next/previous
	PlayOrder []Track `json:"playOrder"`

	// CurrentIndex is the cursor into PlayOrder
	CurrentIndex int `json:"currentIndex"`

	// Queue holds the "play next" overrides, consumed first
	Queue []Track `json:"queue"`

	// Shuffle and Repeat are the playback modes
	Shuffle bool `json:"shuffle"`
	Repeat  bool `json:"repeat"`

	// History is most-recent-first
	History []Track `json:"history"`
}

// Status returns a human-readable summary of the session's playback state.
func (s PlayerState) Status() PlaybackStatus {
	switch {
	case s.CurrentTrack == nil:
		return StatusIdle
	case s.IsPlaying:
		return StatusPlaying
	default:
		return StatusPaused
	}
}

// PlaybackStatus represents the coarse state of a player session.
type PlaybackStatus int

const (
	// StatusIdle indicates no track is loaded
	StatusIdle PlaybackStatus = iota

	// StatusPlaying indicates a track is loaded and playback is intended
	StatusPlaying

	// StatusPaused indicates a track is loaded and paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Preferences are the per-user client settings.
type Preferences struct {
	// Theme is the UI theme (auto, dark, light)
	Theme string `json:"theme" yaml:"theme" default:"auto" validate:"oneof=auto dark light"`

	// Autoplay continues playback when a list finishes loading
	Autoplay bool `json:"autoplay" yaml:"autoplay"`

	// Notifications enables track change notifications
	Notifications bool `json:"notifications" yaml:"notifications"`

	// Language is a short language code
	Language string `json:"language" yaml:"language" default:"en" validate:"min=2,max=8"`

	// Volume is the saved volume in percent
	Volume int `json:"volume" yaml:"volume" default:"80" validate:"gte=0,lte=100"`

	// DownloadQuality selects the stream quality
	DownloadQuality string `json:"downloadQuality" yaml:"download_quality" default:"high" validate:"oneof=low normal high"`
}

// Artist is an entry of the artist directory derived from the catalog.
type Artist struct {
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
	Cover     string `json:"cover"`
}

// User is the public profile view of a storage namespace.
type User struct {
	ID              string   `json:"id"`
	Likes           []string `json:"likes"`
	FollowedArtists []string `json:"followedArtists"`
}
