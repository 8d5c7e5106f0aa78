// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/niicolenco/tikbattle/internal/adapters/giftcatalog"
	"github.com/niicolenco/tikbattle/internal/config"
	"github.com/niicolenco/tikbattle/internal/domain/ledger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations.
	Stats() map[string]interface{}
	Config() config.Config
	Gifts(ctx context.Context) []giftcatalog.Gift

	// Commands posted to the aggregation loop.
	UpdateConfig(ctx context.Context, cfg *config.Config) error
	StartBattle(seconds int)
	StopBattle()
	TogglePause()
	AddTime(seconds int)
	ResetScores(scope ledger.Scope) error
	NewSession()

	// Test injections.
	InjectGift(ctx context.Context, giftName string, points int)
	InjectTeamGift(teamID string, points int) error
	InjectTaps(ctx context.Context, amount int)
	InjectShare(ctx context.Context, amount int)
}

// Server wires HTTP routes for the control API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	configHandler *ConfigHandler
	giftsHandler  *GiftsHandler
	battleHandler *BattleHandler
	testHandler   *TestHandler
	overlay       http.Handler
}

// NewServer creates a new API server with all handlers. The overlay
// handler serves the /ws websocket endpoint.
func NewServer(deps Dependencies, overlay http.Handler) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		configHandler: NewConfigHandler(deps),
		giftsHandler:  NewGiftsHandler(deps),
		battleHandler: NewBattleHandler(deps),
		testHandler:   NewTestHandler(deps),
		overlay:       overlay,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/config", MetricsMiddleware(s.configHandler.HandleConfig, "config"))
	mux.HandleFunc("/api/gifts", MetricsMiddleware(s.giftsHandler.HandleGifts, "gifts"))
	mux.HandleFunc("/api/battle/start", MetricsMiddleware(s.battleHandler.HandleStart, "battle_start"))
	mux.HandleFunc("/api/battle/stop", MetricsMiddleware(s.battleHandler.HandleStop, "battle_stop"))
	mux.HandleFunc("/api/battle/pause", MetricsMiddleware(s.battleHandler.HandlePause, "battle_pause"))
	mux.HandleFunc("/api/battle/time", MetricsMiddleware(s.battleHandler.HandleAddTime, "battle_time"))
	mux.HandleFunc("/api/reset", MetricsMiddleware(s.battleHandler.HandleReset, "reset"))
	mux.HandleFunc("/api/session/new", MetricsMiddleware(s.battleHandler.HandleNewSession, "session_new"))
	mux.HandleFunc("/api/test/gift", MetricsMiddleware(s.testHandler.HandleGift, "test_gift"))
	mux.HandleFunc("/api/test/like", MetricsMiddleware(s.testHandler.HandleLike, "test_like"))
	mux.HandleFunc("/api/test/share", MetricsMiddleware(s.testHandler.HandleShare, "test_share"))
	if s.overlay != nil {
		mux.Handle("/ws", s.overlay)
	}
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeAccepted(w http.ResponseWriter) {
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
