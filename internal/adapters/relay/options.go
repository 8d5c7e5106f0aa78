package relay

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Default relay configuration constants.
const (
	defaultRelayURL          = "ws://127.0.0.1:21213/"
	defaultReconnectInterval = 3 * time.Second
	defaultActivityWindow    = 60 * time.Second
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithURL sets the relay address to dial.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithReconnectInterval sets the delay between reconnect attempts.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnect = d
		}
	}
}

// WithActivityWindow sets how long after the last event the connection
// still counts as active.
func WithActivityWindow(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.activity = d
		}
	}
}

// WithClock injects the clock used for reconnect and activity timing.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}
