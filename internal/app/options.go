package service

import (
	"github.com/jonboulle/clockwork"

	"github.com/niicolenco/tikbattle/internal/adapters/analytics"
	"github.com/niicolenco/tikbattle/internal/adapters/broadcast"
	"github.com/niicolenco/tikbattle/internal/adapters/giftcatalog"
	eventqueue "github.com/niicolenco/tikbattle/internal/adapters/mq/queue"
	"github.com/niicolenco/tikbattle/internal/adapters/relay"
	"github.com/niicolenco/tikbattle/internal/adapters/session"
	"github.com/niicolenco/tikbattle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueue injects the event queue. Used by tests; Start builds one
// from the configuration otherwise.
func WithQueue(q eventqueue.Queue) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithHub injects the broadcast hub.
func WithHub(h *broadcast.Hub) Option {
	return func(s *Service) {
		if h != nil {
			s.hub = h
		}
	}
}

// WithRelay injects the relay client.
func WithRelay(c *relay.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.relay = c
		}
	}
}

// WithSessionStore injects the session store.
func WithSessionStore(st *session.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRecorder injects the analytics recorder.
func WithRecorder(r *analytics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithCatalog injects the gift catalog.
func WithCatalog(c *giftcatalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock injects the clock driving the timer, heartbeat, and
// debounced saves.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
