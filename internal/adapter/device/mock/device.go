// Package mock provides a simulated implementation of the PlaybackDevice interface.
// This is used for testing services and for the CLI, where no browser is attached.
package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// DefaultDuration is the simulated length of every source.
const DefaultDuration = 3 * time.Minute

// Device is a mock implementation of the PlaybackDevice interface.
// It simulates playback in memory on a manual clock driven by Tick.
//
// Thread-safety: This implementation is thread-safe.
type Device struct {
	// Dependencies
	logger *slog.Logger
	bus    ports.EventBus
	owner  string

	// Playback state
	source   string
	status   domain.PlaybackStatus
	position time.Duration
	duration time.Duration
	volume   float64
	closed   bool

	// commands records every accepted command, in order
	commands []string

	mu sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failSetSource bool
	failPlay      bool
}

// NewDevice creates a new mock device for owner. bus may be nil.
func NewDevice(owner string, bus ports.EventBus) *Device {
	return &Device{
		owner:    owner,
		bus:      bus,
		status:   domain.StatusIdle,
		duration: DefaultDuration,
		volume:   1.0,
		commands: make([]string, 0),
	}
}

// NewFactory returns a DeviceFactory creating mock devices on bus.
func NewFactory(bus ports.EventBus, logger *slog.Logger) ports.DeviceFactory {
	return func(owner string) (ports.PlaybackDevice, error) {
		d := NewDevice(owner, bus)
		d.SetLogger(logger)
		return d, nil
	}
}

// SetLogger sets the logger for this device.
func (d *Device) SetLogger(logger *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// SetFailSetSource configures the mock to fail loading sources (for testing).
func (d *Device) SetFailSetSource(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failSetSource = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (d *Device) SetFailPlay(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failPlay = fail
}

// SetSource replaces the source and rewinds to the start, paused.
func (d *Device) SetSource(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.failSetSource {
		return domain.NewDeviceError("set_source", url, domain.NewValidationError("source", url, "mock load failed"))
	}
	if url == "" {
		return domain.NewDeviceError("set_source", url, domain.NewValidationError("source", url, "empty source"))
	}

	d.source = url
	d.position = 0
	d.duration = DefaultDuration
	d.status = domain.StatusPaused
	d.record("set_source " + url)
	return nil
}

// Play starts or resumes playback.
func (d *Device) Play(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.source == "" {
		return domain.NewDeviceError("play", "", domain.ErrNoTrackLoaded)
	}
	if d.failPlay {
		return domain.NewDeviceError("play", d.source, domain.NewValidationError("play", d.source, "mock play failed"))
	}

	d.status = domain.StatusPlaying
	d.record("play")
	return nil
}

// Pause pauses playback.
func (d *Device) Pause(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.status == domain.StatusPlaying {
		d.status = domain.StatusPaused
	}
	d.record("pause")
	return nil
}

// Seek sets the playback position.
func (d *Device) Seek(_ context.Context, position time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.source == "" {
		return domain.NewDeviceError("seek", "", domain.ErrNoTrackLoaded)
	}
	if position < 0 || position > d.duration {
		return domain.ErrInvalidPosition
	}

	d.position = position
	d.record("seek " + position.String())
	return nil
}

// SetVolume sets the playback volume.
func (d *Device) SetVolume(_ context.Context, volume float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	d.volume = volume
	d.record("set_volume")
	return nil
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.status = domain.StatusIdle
	return nil
}

// Tick advances the simulated clock while playing and reports progress.
// Reaching the end of the source stops playback and reports end-of-track.
func (d *Device) Tick(delta time.Duration) {
	d.mu.Lock()
	if d.closed || d.status != domain.StatusPlaying {
		d.mu.Unlock()
		return
	}

	d.position += delta
	ended := d.position >= d.duration
	if ended {
		d.position = d.duration
		d.status = domain.StatusPaused
	}
	position, duration, source := d.position, d.duration, d.source
	bus, owner, logger := d.bus, d.owner, d.logger
	d.mu.Unlock()

	// Publish outside the lock: handlers command the device again
	if bus == nil {
		return
	}
	bus.Publish(domain.NewDeviceProgressEvent(owner, position, duration))
	if ended {
		if logger != nil {
			logger.Debug("simulated track ended", slog.String("source", source))
		}
		bus.Publish(domain.NewTrackEndedEvent(owner, source))
	}
}

// Source returns the current source.
func (d *Device) Source() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.source
}

// Status returns the simulated playback status.
func (d *Device) Status() domain.PlaybackStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Position returns the simulated playback position.
func (d *Device) Position() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.position
}

// Volume returns the current volume.
func (d *Device) Volume() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.volume
}

// Commands returns a copy of the accepted commands (for testing).
func (d *Device) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.commands))
	copy(out, d.commands)
	return out
}

// ResetCommands forgets the recorded commands (for testing).
func (d *Device) ResetCommands() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = d.commands[:0]
}

// record must be called with the lock held.
func (d *Device) record(cmd string) {
	d.commands = append(d.commands, cmd)
}

// Verify that Device implements the PlaybackDevice interface
var _ ports.PlaybackDevice = (*Device)(nil)
