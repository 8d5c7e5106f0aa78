package giftcatalog

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default catalog configuration constants.
const (
	defaultBaseURL      = "https://tikfinity.zerody.one/api/getAllGifts?lang="
	defaultTTL          = 10 * time.Minute
	defaultFetchTimeout = 15 * time.Second

	maxResponseBytes = 8 * 1024 * 1024
)

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithBaseURL overrides the upstream catalog URL (language is appended).
func WithBaseURL(url string) Option {
	return func(c *Catalog) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTTL sets how long a fetched catalog stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithHTTPClient injects the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Catalog) {
		if client != nil {
			c.client = client
		}
	}
}

// WithClock injects the clock used for cache expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Catalog) {
		if clock != nil {
			c.clock = clock
		}
	}
}
