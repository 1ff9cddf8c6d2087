// Package realtime streams bus events to browsers over WebSocket.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 256
)

// envelope is a message for the clients of one user ("" for everyone).
type envelope struct {
	owner   string
	payload []byte
}

// Hub owns the connected clients and fans messages out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	connected atomic.Int64
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger.With(slog.String("component", "realtime")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		for client := range h.clients {
			h.drop(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.connected.Add(1)
			h.logger.Debug("client connected", slog.String("user", client.user))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if msg.owner != "" && client.user != msg.owner {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					h.logger.Warn("dropping slow client", slog.String("user", client.user))
					h.drop(client)
				}
			}
		}
	}
}

// drop forgets client and closes its connection (Run goroutine only).
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.connected.Add(-1)
	close(client.send)
	_ = client.conn.Close()
}

// Publish queues payload for the clients of owner, or for everyone when
// owner is empty. Messages are dropped when the hub is saturated or stopped.
func (h *Hub) Publish(owner string, payload []byte) {
	select {
	case h.broadcast <- envelope{owner: owner, payload: payload}:
	case <-h.done:
	default:
		h.logger.Warn("hub saturated, dropping message")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.connected.Load())
}

// ServeUser upgrades the request to a WebSocket connection for userID.
func (h *Hub) ServeUser(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		user: userID,
		send: make(chan []byte, sendBuffer),
	}

	// Queued before registering; the hub owns send once registered.
	if welcome, err := encode("welcome", userID, map[string]string{"user": userID}); err == nil {
		client.send <- welcome
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
