package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/niicolenco/tikbattle/internal/domain/ledger"
)

// BattleController exposes battle lifecycle and reset commands.
type BattleController interface {
	StartBattle(seconds int)
	StopBattle()
	TogglePause()
	AddTime(seconds int)
	ResetScores(scope ledger.Scope) error
	NewSession()
}

// BattleHandler handles battle lifecycle requests.
type BattleHandler struct {
	deps BattleController
}

// NewBattleHandler creates a new battle handler.
func NewBattleHandler(deps BattleController) *BattleHandler {
	return &BattleHandler{deps: deps}
}

// defaultBattleSeconds is the round length used when a start request
// carries no duration, matching the control panel's 5-minute preset.
const defaultBattleSeconds = 300

type startRequest struct {
	Seconds int `json:"seconds"`
}

type timeRequest struct {
	Seconds int `json:"seconds"`
}

type resetRequest struct {
	Scope string `json:"scope"`
}

// HandleStart handles POST /api/battle/start requests. A zero or
// missing seconds value starts the battle with the default duration.
func (h *BattleHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.battle_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req startRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Seconds < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if req.Seconds == 0 {
		req.Seconds = defaultBattleSeconds
	}
	h.deps.StartBattle(req.Seconds)
	writeAccepted(w)
}

// HandleStop handles POST /api/battle/stop requests.
func (h *BattleHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.StopBattle()
	writeAccepted(w)
}

// HandlePause handles POST /api/battle/pause requests. The same
// endpoint pauses a running timer and resumes a paused one.
func (h *BattleHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.TogglePause()
	writeAccepted(w)
}

// HandleAddTime handles POST /api/battle/time requests. Seconds may be
// negative to shorten the countdown.
func (h *BattleHandler) HandleAddTime(w http.ResponseWriter, r *http.Request) {
	const op = "api.battle_time"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req timeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.deps.AddTime(req.Seconds)
	writeAccepted(w)
}

// HandleReset handles POST /api/reset requests.
func (h *BattleHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ResetScores(ledger.Scope(req.Scope)); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_scope", Wrap(op, err))
		return
	}
	writeAccepted(w)
}

// HandleNewSession handles POST /api/session/new requests.
func (h *BattleHandler) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.NewSession()
	writeAccepted(w)
}

// decodeOptionalBody decodes a JSON body into v, treating an empty body
// as the zero value.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
