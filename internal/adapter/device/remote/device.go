// Package remote provides a PlaybackDevice whose audio element lives in the browser.
//
// Commands are published as domain.DeviceCommandEvent on the event bus and
// reach the browser through the realtime stream. The browser reports
// progress and end-of-track back over HTTP; Reporter turns those reports
// into bus events.
package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Device forwards commands for one user to their browser.
//
// Thread-safety: This implementation is thread-safe.
type Device struct {
	bus    ports.EventBus
	owner  string
	logger *slog.Logger

	mu     sync.Mutex
	source string
	closed bool
}

// NewDevice creates a remote device for owner.
func NewDevice(owner string, bus ports.EventBus, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		bus:    bus,
		owner:  owner,
		logger: logger.With(slog.String("device", "remote"), slog.String("user", owner)),
	}
}

// NewFactory returns a DeviceFactory creating remote devices on bus.
func NewFactory(bus ports.EventBus, logger *slog.Logger) ports.DeviceFactory {
	return func(owner string) (ports.PlaybackDevice, error) {
		return NewDevice(owner, bus, logger), nil
	}
}

// SetSource tells the browser to load url.
func (d *Device) SetSource(_ context.Context, url string) error {
	if url == "" {
		return domain.NewDeviceError("set_source", url, domain.NewValidationError("source", url, "empty source"))
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return domain.ErrDeviceClosed
	}
	d.source = url
	d.mu.Unlock()

	event := domain.NewDeviceCommandEvent(d.owner, domain.CommandSetSource)
	event.URL = url
	return d.send(event)
}

// Play tells the browser to start or resume playback.
func (d *Device) Play(context.Context) error {
	if err := d.requireSource("play"); err != nil {
		return err
	}
	return d.send(domain.NewDeviceCommandEvent(d.owner, domain.CommandPlay))
}

// Pause tells the browser to pause.
func (d *Device) Pause(context.Context) error {
	if err := d.requireOpen(); err != nil {
		return err
	}
	return d.send(domain.NewDeviceCommandEvent(d.owner, domain.CommandPause))
}

// Seek tells the browser to move the playback position.
func (d *Device) Seek(_ context.Context, position time.Duration) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	if err := d.requireSource("seek"); err != nil {
		return err
	}

	event := domain.NewDeviceCommandEvent(d.owner, domain.CommandSeek)
	event.Position = position.Seconds()
	return d.send(event)
}

// SetVolume tells the browser to change the volume.
func (d *Device) SetVolume(_ context.Context, volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}
	if err := d.requireOpen(); err != nil {
		return err
	}

	event := domain.NewDeviceCommandEvent(d.owner, domain.CommandSetVolume)
	event.Volume = volume
	return d.send(event)
}

// Close detaches the device. Further commands fail.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Source returns the last source sent to the browser.
func (d *Device) Source() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source
}

func (d *Device) requireOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.ErrDeviceClosed
	}
	return nil
}

func (d *Device) requireSource(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.source == "" {
		return domain.NewDeviceError(op, "", domain.ErrNoTrackLoaded)
	}
	return nil
}

// send publishes a command. A browser that is not listening misses it; the
// next state snapshot it fetches will resync it.
func (d *Device) send(event domain.DeviceCommandEvent) error {
	if !d.bus.HasSubscribers(domain.EventDeviceCommand) {
		d.logger.Debug("no listener for device command", slog.String("command", string(event.Command)))
	}
	d.bus.Publish(event)
	return nil
}

// Verify that Device implements the PlaybackDevice interface
var _ ports.PlaybackDevice = (*Device)(nil)

// Reporter turns browser reports into device events.
type Reporter struct {
	bus ports.EventBus
}

// NewReporter creates a Reporter publishing on bus.
func NewReporter(bus ports.EventBus) *Reporter {
	return &Reporter{bus: bus}
}

// ReportProgress publishes the browser's time update.
func (r *Reporter) ReportProgress(owner string, current, duration time.Duration) error {
	if current < 0 || duration < 0 {
		return domain.ErrInvalidPosition
	}
	r.bus.Publish(domain.NewDeviceProgressEvent(owner, current, duration))
	return nil
}

// ReportEnded publishes the browser's end-of-track notification for url.
func (r *Reporter) ReportEnded(owner, url string) {
	r.bus.Publish(domain.NewTrackEndedEvent(owner, url))
}
