// Package relay maintains the WebSocket connection to the local
// TikFinity-style relay that forwards live TikTok events. It
// normalizes the relay's nested frame shapes into envelopes and hands
// them to the event queue.
package relay

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/niicolenco/tikbattle/internal/adapters/mq/queue"
	"github.com/niicolenco/tikbattle/internal/domain/model"
	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/niicolenco/tikbattle/pkg/metrics"
)

// Status values reported to overlays.
const (
	StatusDisconnected = "disconnected"
	StatusConnecting   = "connecting"
	StatusActive       = "active"
	StatusWaiting      = "waiting"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateOpen
)

// Client dials the relay, reads frames, and enqueues envelopes.
type Client struct {
	mu       sync.Mutex
	url      string
	conn     *websocket.Conn
	state    connState
	lastData time.Time

	queue     queue.Queue
	reconnect time.Duration
	activity  time.Duration
	clock     clockwork.Clock
	dialer    *websocket.Dialer
	log       logger.Logger
}

// NewClient creates a relay client feeding the given queue.
func NewClient(q queue.Queue, opts ...Option) *Client {
	c := &Client{
		url:       defaultRelayURL,
		queue:     q,
		reconnect: defaultReconnectInterval,
		activity:  defaultActivityWindow,
		clock:     clockwork.NewRealClock(),
		dialer:    websocket.DefaultDialer,
		log:       logger.Named("relay"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.url = normalizeURL(c.url)
	return c
}

// normalizeURL rewrites localhost to 127.0.0.1; some relay builds only
// bind the IPv4 loopback and localhost can resolve to ::1.
func normalizeURL(url string) string {
	return strings.Replace(url, "localhost", "127.0.0.1", 1)
}

// Run connects and reconnects until the context is cancelled.
func (c *Client) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		c.setState(stateConnecting)
		metrics.UpdateRelayState(1)

		url := c.currentURL()
		conn, resp, err := c.dialer.DialContext(ctx, url, nil) //nolint:bodyclose // websocket hijacks the response body
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			c.setState(stateDisconnected)
			metrics.UpdateRelayState(0)
			c.log.Debug(ctx, "relay dial failed", logger.Error(err), logger.String("url", url))
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		c.setConn(conn)
		c.setState(stateOpen)
		metrics.UpdateRelayState(2)
		c.log.Info(ctx, "relay connected", logger.String("url", url))

		c.readLoop(ctx, conn)

		c.setConn(nil)
		c.setState(stateDisconnected)
		metrics.UpdateRelayState(0)
		metrics.RecordRelayReconnect()

		if !c.sleep(ctx) {
			return
		}
	}
}

// SetURL points the client at a new relay address. If the address
// changed while connected, the current connection is closed so Run
// redials the new one.
func (c *Client) SetURL(url string) {
	url = normalizeURL(url)

	c.mu.Lock()
	changed := url != c.url
	c.url = url
	conn := c.conn
	c.mu.Unlock()

	if changed && conn != nil {
		_ = conn.Close()
	}
}

// Status derives the connection status the overlays display. An open
// socket with no recent events is "waiting": the relay is up but the
// stream is quiet or offline.
func (c *Client) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateOpen:
		if c.clock.Now().Sub(c.lastData) < c.activity {
			return StatusActive
		}
		return StatusWaiting
	case stateConnecting:
		return StatusConnecting
	default:
		return StatusDisconnected
	}
}

// MarkActivity records data arrival for the status window. Exposed so
// test injections count as activity the way real events do.
func (c *Client) MarkActivity() {
	c.mu.Lock()
	c.lastData = c.clock.Now()
	c.mu.Unlock()
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return
		}

		c.MarkActivity()

		eventType, payload, err := unwrap(raw)
		if err != nil {
			metrics.RecordRelayParseError()
			c.log.Debug(ctx, "unparseable relay frame", logger.Error(err))
			continue
		}

		env := model.Envelope{
			Type:     eventType,
			Payload:  payload,
			Received: c.clock.Now(),
		}
		if !c.queue.Enqueue(ctx, env) {
			metrics.RecordEventDropped("queue_full")
		}
	}
}

// unwrap flattens the relay's frame shapes. Frames arrive either flat
// or wrapped once or twice under "data"; the event name lives in
// "event", "type", or "data.event" depending on the relay build.
func unwrap(raw []byte) (string, map[string]any, error) {
	var outer map[string]any
	if err := json.Unmarshal(raw, &outer); err != nil {
		return "", nil, err
	}

	payload := outer
	var data map[string]any
	if d, ok := outer["data"].(map[string]any); ok {
		data = d
		if inner, ok := d["data"].(map[string]any); ok {
			payload = inner
		} else {
			payload = d
		}
	}

	eventType := ""
	if s, ok := outer["event"].(string); ok && s != "" {
		eventType = s
	} else if s, ok := outer["type"].(string); ok && s != "" {
		eventType = s
	} else if data != nil {
		if s, ok := data["event"].(string); ok {
			eventType = s
		}
	}

	return strings.ToLower(eventType), payload, nil
}

func (c *Client) currentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

func (c *Client) setState(s connState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// sleep waits out the reconnect interval; false means the context was
// cancelled.
func (c *Client) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(c.reconnect):
		return true
	}
}
