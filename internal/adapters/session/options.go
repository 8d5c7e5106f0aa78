package session

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultDebounce = 3 * time.Second

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithDebounce sets the save coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithClock injects the clock used for debounce timing.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}
