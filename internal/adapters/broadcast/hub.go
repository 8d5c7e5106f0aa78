// Package broadcast fans engine state out to overlay clients over
// WebSocket. Every connected overlay receives every message; slow
// consumers are dropped rather than allowed to stall the rest.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/niicolenco/tikbattle/pkg/metrics"
)

// Message is the wire format pushed to overlays.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// StateFunc returns the snapshot messages a freshly attached overlay
// needs to render without waiting for the next live update.
type StateFunc func() []Message

// Hub manages the set of connected overlay clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	upgrader    websocket.Upgrader
	broadcastCh chan Message
	stateFn     StateFunc

	writeTimeout time.Duration
	pingInterval time.Duration
	sendBuffer   int

	log logger.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	connectedAt time.Time
}

// NewHub creates a broadcast hub with configuration options.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:      make(map[*client]bool),
		broadcastCh:  make(chan Message, defaultBroadcastBuffer),
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
		sendBuffer:   defaultSendBuffer,
		log:          logger.Named("broadcast"),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Overlay pages are served from local files and OBS browser
		// sources, so origin checks are not meaningful here.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return h
}

// Start processes broadcast messages until the context is cancelled.
// It must be running for Broadcast to make progress.
func (h *Hub) Start(ctx context.Context) {
	h.log.Info(ctx, "broadcast hub started")

	for {
		select {
		case <-ctx.Done():
			h.log.Info(ctx, "broadcast hub shutting down")
			h.closeAll()
			return
		case msg := <-h.broadcastCh:
			h.fanOut(ctx, msg)
		}
	}
}

// Broadcast enqueues a message for delivery to every connected client.
// The message is dropped when the hub's buffer is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcastCh <- msg:
	default:
		metrics.RecordBroadcastDropped()
		h.log.Warn(context.Background(), "broadcast buffer full, dropping message",
			logger.String("type", msg.Type))
	}
}

// ClientCount returns the number of connected overlay clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a WebSocket connection, pushes the
// current state snapshot, and starts the read/write pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(r.Context(), "websocket upgrade failed", logger.Error(err))
		metrics.RecordErrorByComponent("broadcast", "upgrade_failed")
		return
	}

	c := &client{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, h.sendBuffer),
		hub:         h,
		connectedAt: time.Now(),
	}

	h.register(c)

	// Seed the new overlay with the current state before any live
	// updates reach it.
	if h.stateFn != nil {
		for _, msg := range h.stateFn() {
			if data, err := json.Marshal(msg); err == nil {
				c.send <- data
			}
		}
	}

	go c.writePump()
	go c.readPump()

	h.log.Info(r.Context(), "overlay connected",
		logger.String("client_id", c.id),
		logger.String("remote", r.RemoteAddr))
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateOverlayClients(count)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateOverlayClients(count)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
	h.mu.Unlock()

	metrics.UpdateOverlayClients(0)
}

// fanOut marshals once and sends to every client; clients whose send
// buffer is full are disconnected.
func (h *Hub) fanOut(ctx context.Context, msg Message) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error(ctx, "failed to marshal broadcast message",
			logger.Error(err), logger.String("type", msg.Type))
		metrics.RecordErrorByComponent("broadcast", "marshal_failed")
		return
	}

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			h.log.Warn(ctx, "client send buffer full, disconnecting",
				logger.String("client_id", c.id))
			h.unregister(c)
			_ = c.conn.Close()
		}
	}

	metrics.RecordBroadcast(msg.Type)
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames. Overlays never send application
// messages; reading is only needed to notice disconnects and answer
// control frames.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxClientMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug(context.Background(), "overlay read error",
					logger.Error(err), logger.String("client_id", c.id))
			}
			return
		}
	}
}
