package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// TestInjector exposes synthetic event injection for testing overlays
// without a live stream.
type TestInjector interface {
	InjectGift(ctx context.Context, giftName string, points int)
	InjectTeamGift(teamID string, points int) error
	InjectTaps(ctx context.Context, amount int)
	InjectShare(ctx context.Context, amount int)
}

// TestHandler handles synthetic event requests.
type TestHandler struct {
	deps TestInjector
}

// NewTestHandler creates a new test handler.
func NewTestHandler(deps TestInjector) *TestHandler {
	return &TestHandler{deps: deps}
}

type testGiftRequest struct {
	TeamID   string `json:"team_id"`
	GiftName string `json:"gift_name"`
	Points   int    `json:"points"`
}

type testAmountRequest struct {
	Amount int `json:"amount"`
}

// HandleGift handles POST /api/test/gift requests. With a team_id the
// gift is credited straight to that team, skipping name resolution and
// the timer gate; otherwise it flows through the pipeline like a real
// gift event.
func (h *TestHandler) HandleGift(w http.ResponseWriter, r *http.Request) {
	const op = "api.test_gift"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req testGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Points <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if req.TeamID != "" {
		if err := h.deps.InjectTeamGift(req.TeamID, req.Points); err != nil {
			writeError(w, http.StatusBadRequest, "unknown_team", Wrap(op, err))
			return
		}
		writeAccepted(w)
		return
	}
	h.deps.InjectGift(r.Context(), req.GiftName, req.Points)
	writeAccepted(w)
}

// HandleLike handles POST /api/test/like requests. A missing amount
// injects a single tap.
func (h *TestHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	const op = "api.test_like"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	amount, err := decodeAmount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.deps.InjectTaps(r.Context(), amount)
	writeAccepted(w)
}

// HandleShare handles POST /api/test/share requests.
func (h *TestHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	const op = "api.test_share"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	amount, err := decodeAmount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.deps.InjectShare(r.Context(), amount)
	writeAccepted(w)
}

func decodeAmount(r *http.Request) (int, error) {
	var req testAmountRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return 0, err
	}
	if req.Amount <= 0 {
		req.Amount = 1
	}
	return req.Amount, nil
}
