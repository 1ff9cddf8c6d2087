// Package ports define the playback device interface.
package ports

import (
	"context"
	"time"
)

// PlaybackDevice is the media-element-like primitive a player session commands.
// This abstracts the browser audio element (or a simulated one in tests).
//
// Commands are fire-and-forget from the player's point of view: a failed
// command is reported to the caller but never rolls back player state.
// Devices report progress and end-of-track by publishing
// domain.DeviceProgressEvent and domain.TrackEndedEvent on the event bus,
// tagged with the owning user.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type PlaybackDevice interface {
	// SetSource replaces the device's source, interrupting any playback in progress.
	SetSource(ctx context.Context, url string) error

	// Play starts or resumes playback of the current source.
	Play(ctx context.Context) error

	// Pause pauses playback, preserving the position.
	Pause(ctx context.Context) error

	// Seek moves the playback position.
	Seek(ctx context.Context, position time.Duration) error

	// SetVolume sets the volume from 0.0 (silent) to 1.0 (full volume).
	SetVolume(ctx context.Context, volume float64) error

	// Close releases the device. Commands after Close return domain.ErrDeviceClosed.
	Close() error
}

// DeviceFactory creates the playback device for a user's session.
type DeviceFactory func(owner string) (PlaybackDevice, error)
