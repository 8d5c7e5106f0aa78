// Package giftcatalog fetches the public gift list (name, diamond
// value, icon) used by the configuration UI to bind gifts to teams.
// Results are cached and served stale on fetch errors.
package giftcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/niicolenco/tikbattle/pkg/metrics"
)

// Gift is one catalog entry, normalized for the configuration UI.
type Gift struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DiamondCount int    `json:"diamond_count"`
	IconURL      string `json:"icon_url"`
}

// rawGift matches the upstream response shape.
type rawGift struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DiamondCount int    `json:"diamond_count"`
	Image        struct {
		URLList []string `json:"url_list"`
	} `json:"image"`
}

// Catalog caches gift lists per language.
type Catalog struct {
	mu        sync.Mutex
	gifts     []Gift
	fetchedAt time.Time

	baseURL string
	ttl     time.Duration
	client  *http.Client
	clock   clockwork.Clock
	log     logger.Logger
}

// NewCatalog creates a catalog with configuration options.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		baseURL: defaultBaseURL,
		ttl:     defaultTTL,
		client:  &http.Client{Timeout: defaultFetchTimeout},
		clock:   clockwork.NewRealClock(),
		log:     logger.Named("giftcatalog"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Gifts returns the catalog for the given language, fetching from
// upstream only when the cache has expired. On fetch or parse errors
// the previous (possibly empty) catalog is returned without error.
func (c *Catalog) Gifts(ctx context.Context, lang string) []Gift {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if len(c.gifts) > 0 && now.Sub(c.fetchedAt) < c.ttl {
		return c.gifts
	}

	gifts, err := c.fetch(ctx, lang)
	if err != nil {
		c.log.Warn(ctx, "gift catalog fetch failed, serving cached",
			logger.Error(err), logger.String("lang", lang),
			logger.Int("cached", len(c.gifts)))
		metrics.RecordErrorByComponent("giftcatalog", "fetch_failed")
		return c.gifts
	}

	c.gifts = gifts
	c.fetchedAt = now
	c.log.Info(ctx, "gift catalog refreshed",
		logger.String("lang", lang), logger.Int("gifts", len(gifts)))
	return c.gifts
}

func (c *Catalog) fetch(ctx context.Context, lang string) ([]Gift, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+lang, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog upstream returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	return parseGifts(body)
}

// parseGifts accepts either a bare array or an object with a "gifts"
// field, matching the two shapes the upstream has served.
func parseGifts(body []byte) ([]Gift, error) {
	var raw []rawGift
	if err := json.Unmarshal(body, &raw); err != nil {
		var wrapped struct {
			Gifts []rawGift `json:"gifts"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("parse catalog response: %w", err)
		}
		raw = wrapped.Gifts
	}

	gifts := make([]Gift, 0, len(raw))
	for _, g := range raw {
		icon := ""
		if len(g.Image.URLList) > 0 {
			icon = g.Image.URLList[0]
		}
		gifts = append(gifts, Gift{
			ID:           g.ID,
			Name:         g.Name,
			DiamondCount: g.DiamondCount,
			IconURL:      icon,
		})
	}

	sort.SliceStable(gifts, func(i, j int) bool {
		return gifts[i].DiamondCount < gifts[j].DiamondCount
	})

	return gifts, nil
}
