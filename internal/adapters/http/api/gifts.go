package api

import (
	"context"
	"net/http"

	"github.com/niicolenco/tikbattle/internal/adapters/giftcatalog"
)

// GiftsProvider exposes the cached gift catalog.
type GiftsProvider interface {
	Gifts(ctx context.Context) []giftcatalog.Gift
}

// GiftsHandler handles gift catalog requests.
type GiftsHandler struct {
	deps GiftsProvider
}

// NewGiftsHandler creates a new gifts handler.
func NewGiftsHandler(deps GiftsProvider) *GiftsHandler {
	return &GiftsHandler{deps: deps}
}

// HandleGifts handles GET /api/gifts requests. The catalog serves stale
// data when the upstream is unreachable, so the response may be empty
// but never errors.
func (h *GiftsHandler) HandleGifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	gifts := h.deps.Gifts(r.Context())
	if gifts == nil {
		gifts = []giftcatalog.Gift{}
	}
	writeJSON(w, http.StatusOK, gifts)
}
