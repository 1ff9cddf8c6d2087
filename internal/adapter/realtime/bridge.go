package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// Message is the wire format of the event stream.
type Message struct {
	Type  string    `json:"type"`
	Owner string    `json:"owner,omitempty"`
	At    time.Time `json:"at"`
	Data  any       `json:"data"`
}

func encode(eventType, owner string, data any) ([]byte, error) {
	payload, err := json.Marshal(Message{Type: eventType, Owner: owner, At: time.Now().UTC(), Data: data})
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", eventType)
	}
	return payload, nil
}

// Bridge forwards every bus event to the hub, addressed to the event's owner.
type Bridge struct {
	bus    ports.EventBus
	hub    *Hub
	logger *slog.Logger
	sub    domain.SubscriptionID
}

// NewBridge subscribes hub to all events of bus.
func NewBridge(bus ports.EventBus, hub *Hub, logger *slog.Logger) *Bridge {
	b := &Bridge{bus: bus, hub: hub, logger: hub.logger}
	if logger != nil {
		b.logger = logger
	}
	b.sub = bus.SubscribeAll(b.forward)
	return b
}

func (b *Bridge) forward(event domain.Event) {
	// Progress ticks are only interesting to the reporting browser itself.
	if event.Type() == domain.EventDeviceProgress {
		return
	}

	payload, err := json.Marshal(Message{
		Type:  string(event.Type()),
		Owner: event.Owner(),
		At:    event.Timestamp().UTC(),
		Data:  event,
	})
	if err != nil {
		b.logger.Warn("failed to encode event", slog.String("type", string(event.Type())), slog.Any("error", err))
		return
	}
	b.hub.Publish(event.Owner(), payload)
}

// Close stops forwarding.
func (b *Bridge) Close() {
	b.bus.Unsubscribe(b.sub)
}
