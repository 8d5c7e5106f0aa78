package broadcast

import "time"

// Default hub configuration constants.
const (
	defaultWriteTimeout    = 10 * time.Second
	defaultPingInterval    = 30 * time.Second
	defaultSendBuffer      = 256
	defaultBroadcastBuffer = 1024

	maxClientMessageSize = 1024
)

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithWriteTimeout sets the per-message write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often clients are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithSendBuffer sets the per-client outgoing buffer size.
func WithSendBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

// WithStateFunc sets the snapshot provider invoked for each newly
// connected client.
func WithStateFunc(fn StateFunc) Option {
	return func(h *Hub) {
		h.stateFn = fn
	}
}
