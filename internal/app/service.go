// Package service provides the core aggregation service that implements
// the dependencies required by the HTTP API.
//
// All score state is owned by a single run loop: relay events, control
// commands, and timer expirations are serialized through it, so event
// handling never races a battle start or a config swap.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/niicolenco/tikbattle/internal/adapters/analytics"
	"github.com/niicolenco/tikbattle/internal/adapters/broadcast"
	"github.com/niicolenco/tikbattle/internal/adapters/giftcatalog"
	eventqueue "github.com/niicolenco/tikbattle/internal/adapters/mq/queue"
	"github.com/niicolenco/tikbattle/internal/adapters/relay"
	"github.com/niicolenco/tikbattle/internal/adapters/session"
	"github.com/niicolenco/tikbattle/internal/config"
	"github.com/niicolenco/tikbattle/internal/domain/battle"
	"github.com/niicolenco/tikbattle/internal/domain/goal"
	"github.com/niicolenco/tikbattle/internal/domain/ledger"
	"github.com/niicolenco/tikbattle/internal/domain/model"
	"github.com/niicolenco/tikbattle/internal/domain/scoring"
	"github.com/niicolenco/tikbattle/internal/domain/team"
	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/niicolenco/tikbattle/pkg/metrics"
)

// Broadcast message types understood by the overlays and the panel.
const (
	msgScores       = "scores"
	msgStreamScores = "stream_scores"
	msgTapsUpdate   = "TAPS_UPDATE"
	msgPointsUpdate = "TOTAL_POINTS_UPDATE"
	msgStatsUpdate  = "STATS_UPDATE"
	msgTimerUpdate  = "TIMER_UPDATE"
	msgBattleStart  = "BATTLE_START"
	msgBattleEnd    = "BATTLE_END"
	msgAppStatus    = "APP_STATUS"
	msgConfig       = "config"
)

const heartbeatInterval = time.Second

// goalPayload is a goal progress snapshot plus the overlay fill color.
type goalPayload struct {
	goal.Progress
	FillColor string `json:"fillColor"`
}

// winnerPayload is the BATTLE_END message body.
type winnerPayload struct {
	Winner *winnerTeam `json:"winner"`
}

type winnerTeam struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// panelStats is the STATS_UPDATE message body.
type panelStats struct {
	Taps     int `json:"taps"`
	Diamonds int `json:"diamonds"`
	Shares   int `json:"shares"`
}

// Service implements the API dependencies for the battle overlay engine.
type Service struct {
	mu sync.RWMutex

	// Loop-owned state; the mutex makes cross-goroutine reads safe,
	// mutations happen only on the run loop.
	cfg        *config.Config
	ledgr      *ledger.Ledger
	registry   *team.Registry
	tapGoals   *goal.Tracker
	pointGoals *goal.Tracker

	// Components
	valuer   *scoring.Valuer
	timer    *battle.Timer
	queue    eventqueue.Queue
	hub      *broadcast.Hub
	relay    *relay.Client
	store    *session.Store
	recorder *analytics.Recorder
	catalog  *giftcatalog.Catalog

	clock clockwork.Clock
	cmdCh chan func()

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service for the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		cmdCh: make(chan func(), 256),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes components, restores the persisted session, and
// launches the run loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("app")
	}

	s.logger.Info(ctx, "starting battle engine...")

	cfg := s.cfg
	s.ledgr = ledger.New()
	s.registry = team.NewRegistry(cfg.Teams)
	s.tapGoals = goal.NewTracker(cfg.TapGoals, goal.DefaultTapDivisor)
	s.pointGoals = goal.NewTracker(cfg.PointGoals, goal.DefaultPointDivisor)
	s.valuer = scoring.NewValuer()

	if s.queue == nil {
		s.queue = eventqueue.NewInMemoryQueue(
			eventqueue.WithCapacity(cfg.QueueSize),
			eventqueue.WithBufferSize(cfg.QueueSize),
		)
	}
	if s.hub == nil {
		s.hub = broadcast.NewHub(broadcast.WithStateFunc(s.connectState))
	}
	if s.store == nil {
		s.store = session.NewStore(cfg.DataDir,
			session.WithDebounce(time.Duration(cfg.SessionSaveDebounceMS)*time.Millisecond),
			session.WithClock(s.clock),
		)
	}
	if s.recorder == nil {
		s.recorder = analytics.NewRecorder(cfg.DataDir)
	}
	if s.catalog == nil {
		catalogOpts := []giftcatalog.Option{giftcatalog.WithClock(s.clock)}
		if cfg.GiftCatalogURL != "" {
			catalogOpts = append(catalogOpts, giftcatalog.WithBaseURL(cfg.GiftCatalogURL))
		}
		s.catalog = giftcatalog.NewCatalog(catalogOpts...)
	}
	if s.relay == nil {
		s.relay = relay.NewClient(s.queue,
			relay.WithURL(cfg.RelayURL),
			relay.WithClock(s.clock),
		)
	}

	s.timer = battle.NewTimer(
		battle.WithClock(s.clock),
		battle.WithUpdateFunc(s.onTimerUpdate),
		battle.WithEndFunc(s.onTimerEnd),
	)

	// Restore the persisted session before any event flows.
	snap, err := s.store.Load()
	if err != nil {
		s.logger.Warn(ctx, "session restore failed, starting fresh", logger.Error(err))
	} else {
		s.ledgr.Restore(snap.TotalTaps, snap.Stats)
	}
	s.tapGoals.Recalculate(s.ledgr.TotalTaps())
	s.pointGoals.Recalculate(s.ledgr.Stats().TotalDiamonds)

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.syncSessionMetrics()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.hub.Start(loopCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.run(loopCtx)
	}()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.relay.Run(loopCtx)
	}()

	s.logger.Info(ctx, "battle engine started",
		logger.Int("teams", len(cfg.Teams)),
		logger.Int("queueSize", cfg.QueueSize),
		logger.String("relayURL", cfg.RelayURL),
	)
	return nil
}

// Stop gracefully shuts down the service, flushing pending session state.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping battle engine...")

	s.timer.Stop()
	cancel()
	if q, ok := s.queue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	s.wg.Wait()

	if err := s.store.Flush(); err != nil {
		s.logger.Error(context.Background(), "final session flush failed", logger.Error(err))
	}

	s.logger.Info(context.Background(), "battle engine stopped")
}

// run is the single consumer of relay events and control commands.
func (s *Service) run(ctx context.Context) {
	events := s.queue.Dequeue(ctx)
	heartbeat := s.clock.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				return
			}
			s.processEvent(ctx, env)
		case cmd := <-s.cmdCh:
			cmd()
		case <-heartbeat.Chan():
			s.emitStatus()
		}
	}
}

// post schedules a command on the run loop without ever blocking the
// caller; timer callbacks can fire while the loop itself is executing a
// command.
func (s *Service) post(cmd func()) {
	select {
	case s.cmdCh <- cmd:
	default:
		go func() { s.cmdCh <- cmd }()
	}
}

// processEvent applies one relay envelope to the score state.
func (s *Service) processEvent(ctx context.Context, env model.Envelope) {
	kind := env.Kind()
	metrics.RecordEventReceived(string(kind))

	switch kind {
	case model.KindLike:
		like := model.DecodeLike(env)
		s.mu.Lock()
		changed := s.ledgr.AddTaps(like.Total, like.HasTotal, like.Batch)
		if changed {
			s.tapGoals.Check(s.ledgr.TotalTaps())
		}
		s.mu.Unlock()

		if changed {
			s.emitTaps()
			s.emitPanelStats()
			s.saveSession()
		}

	case model.KindShare:
		share := model.DecodeShare(env)
		s.mu.Lock()
		s.ledgr.AddShares(share.Amount)
		s.mu.Unlock()

		s.emitPanelStats()
		s.saveSession()

	case model.KindGift:
		gift := model.DecodeGift(env)
		result := s.valuer.Value(gift)
		if result.Suppressed {
			// Mid-streak combo frame; the final frame carries the
			// full repeat count.
			metrics.RecordComboSuppressed()
			return
		}
		if result.Countable() {
			s.applyGift(ctx, gift, result.Points)
		}

	default:
		metrics.RecordEventDropped("unknown_type")
		s.logger.Debug(ctx, "dropping unknown event type",
			logger.String("type", env.Type))
	}

	s.recorder.Record(env.Type, env.Payload)
}

func (s *Service) applyGift(ctx context.Context, gift model.Gift, points int) {
	s.mu.Lock()
	s.ledgr.AddDiamonds(points)
	s.pointGoals.Check(s.ledgr.Stats().TotalDiamonds)

	teamID, matched := s.registry.FindByGift(gift.Name)
	accrued := false
	if matched {
		s.ledgr.AddStreamPoints(teamID, points)
		if s.timer.IsRunning() || s.cfg.AllowGiftsOffTimer {
			s.ledgr.AddBattlePoints(teamID, points)
			accrued = true
		}
	}
	s.mu.Unlock()

	s.logger.Debug(ctx, "gift scored",
		logger.String("gift", gift.Name),
		logger.Int("points", points),
		logger.String("team", teamID),
		logger.Bool("battle", accrued),
	)

	s.emitPoints()
	if matched {
		if accrued {
			s.emitBattleScores()
		}
		s.emitStreamScores()
	}
	s.emitPanelStats()
	s.saveSession()
}

// --- Battle control ---

// StartBattle zeroes battle scores and starts a countdown round.
func (s *Service) StartBattle(seconds int) {
	s.post(func() {
		s.mu.Lock()
		s.ledgr.ZeroBattle(s.registry.IDs())
		s.mu.Unlock()

		metrics.RecordBattleStart()
		s.hub.Broadcast(broadcast.Message{Type: msgBattleStart, Data: struct{}{}})
		s.timer.Start(time.Duration(seconds) * time.Second)
		s.emitBattleScores()
		s.emitStreamScores()
		s.logger.Info(context.Background(), "battle started", logger.Int("seconds", seconds))
	})
}

// StopBattle ends the current round immediately and resolves a winner.
func (s *Service) StopBattle() {
	s.post(func() {
		s.timer.Stop()
	})
}

// TogglePause flips the round timer between running and paused.
func (s *Service) TogglePause() {
	s.post(func() {
		s.timer.TogglePause()
	})
}

// AddTime extends or shortens the current round by a signed delta.
func (s *Service) AddTime(seconds int) {
	s.post(func() {
		s.timer.AddTime(time.Duration(seconds) * time.Second)
	})
}

// onTimerUpdate runs on the timer goroutine; broadcasting is safe from
// any goroutine.
func (s *Service) onTimerUpdate(snap battle.Snapshot) {
	s.hub.Broadcast(broadcast.Message{Type: msgTimerUpdate, Data: snap})
}

// onTimerEnd resolves the round outcome on the run loop.
func (s *Service) onTimerEnd() {
	s.post(s.finishBattle)
}

func (s *Service) finishBattle() {
	s.mu.RLock()
	payload := winnerPayload{}
	if id, ok := s.ledgr.Winner(s.registry.IDs()); ok {
		if t, found := s.registry.Get(id); found {
			payload.Winner = &winnerTeam{Name: t.Name, Color: t.Color, Icon: t.Icon}
		}
	}
	s.mu.RUnlock()

	metrics.RecordBattleEnd()
	s.hub.Broadcast(broadcast.Message{Type: msgBattleEnd, Data: payload})
	s.emitBattleScores()
	s.emitStreamScores()
	s.logger.Info(context.Background(), "battle ended",
		logger.Bool("hasWinner", payload.Winner != nil))
}

// --- Resets and sessions ---

// ResetScores clears one scoring scope.
func (s *Service) ResetScores(scope ledger.Scope) error {
	switch scope {
	case ledger.ScopeBattle, ledger.ScopeStream, ledger.ScopeTaps, ledger.ScopePoints:
	default:
		return ErrUnknownScope
	}

	s.post(func() {
		s.mu.Lock()
		s.ledgr.Reset(scope)
		switch scope {
		case ledger.ScopeTaps:
			s.tapGoals.Recalculate(s.ledgr.TotalTaps())
		case ledger.ScopePoints:
			s.pointGoals.Recalculate(s.ledgr.Stats().TotalDiamonds)
		}
		s.mu.Unlock()

		if scope == ledger.ScopeBattle {
			// Clears any winner banner the overlays still show.
			s.hub.Broadcast(broadcast.Message{Type: msgBattleStart, Data: struct{}{}})
		}
		s.emitBattleScores()
		s.emitStreamScores()
		s.emitTaps()
		s.emitPoints()
		s.emitPanelStats()
		s.saveSession()
	})
	return nil
}

// NewSession zeroes every counter, including both team score maps, and
// rewrites the session file.
func (s *Service) NewSession() {
	s.post(func() {
		s.mu.Lock()
		s.ledgr.ResetSession()
		s.tapGoals.Recalculate(0)
		s.pointGoals.Recalculate(0)
		s.mu.Unlock()

		if err := s.store.Clear(); err != nil {
			s.logger.Error(context.Background(), "failed to clear session file", logger.Error(err))
		}

		// Clears any winner banner the overlays still show.
		s.hub.Broadcast(broadcast.Message{Type: msgBattleStart, Data: struct{}{}})
		s.emitTaps()
		s.emitPoints()
		s.emitBattleScores()
		s.emitStreamScores()
		s.emitPanelStats()
		s.logger.Info(context.Background(), "session reset")
	})
}

// --- Test injections ---

// InjectGift feeds a synthetic gift through the normal event path.
func (s *Service) InjectGift(ctx context.Context, giftName string, points int) {
	if giftName == "" {
		giftName = "TEST_GLOBAL"
	}
	s.relay.MarkActivity()
	s.enqueue(ctx, model.Envelope{
		Type: "gift",
		Payload: map[string]any{
			"giftName":     giftName,
			"diamondCount": points,
			"repeatCount":  1,
		},
		Received: s.clock.Now(),
	})
}

// InjectTeamGift credits a team directly, bypassing gift-name
// resolution and the timer gate. Mirrors the panel's battle test button.
func (s *Service) InjectTeamGift(teamID string, points int) error {
	s.mu.RLock()
	_, ok := s.registry.Get(teamID)
	s.mu.RUnlock()
	if !ok {
		return ErrUnknownTeam
	}

	s.relay.MarkActivity()
	s.post(func() {
		s.mu.Lock()
		s.ledgr.AddDiamonds(points)
		s.pointGoals.Check(s.ledgr.Stats().TotalDiamonds)
		s.ledgr.AddStreamPoints(teamID, points)
		s.ledgr.AddBattlePoints(teamID, points)
		s.mu.Unlock()

		s.emitPoints()
		s.emitBattleScores()
		s.emitStreamScores()
		s.emitPanelStats()
		s.saveSession()
	})
	return nil
}

// InjectTaps feeds a synthetic like batch through the normal event path.
func (s *Service) InjectTaps(ctx context.Context, amount int) {
	s.mu.RLock()
	total := s.ledgr.TotalTaps() + amount
	s.mu.RUnlock()

	s.relay.MarkActivity()
	s.enqueue(ctx, model.Envelope{
		Type: "like",
		Payload: map[string]any{
			"likeCount":      amount,
			"totalLikeCount": total,
		},
		Received: s.clock.Now(),
	})
}

// InjectShare feeds a synthetic share through the normal event path.
func (s *Service) InjectShare(ctx context.Context, amount int) {
	s.relay.MarkActivity()
	s.enqueue(ctx, model.Envelope{
		Type:     "share",
		Payload:  map[string]any{"amount": amount},
		Received: s.clock.Now(),
	})
}

func (s *Service) enqueue(ctx context.Context, env model.Envelope) {
	if !s.queue.Enqueue(ctx, env) {
		metrics.RecordEventDropped("queue_full")
		s.logger.Warn(ctx, "event queue full, dropping injected event",
			logger.String("type", env.Type))
	}
}

// --- Configuration ---

// Config returns a copy of the active configuration.
func (s *Service) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// UpdateConfig swaps the runtime configuration: team registry and goal
// lists are replaced atomically and goal indices recalculated, the
// relay redials if its address changed.
func (s *Service) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.post(func() {
		s.mu.Lock()
		relayChanged := cfg.RelayURL != s.cfg.RelayURL
		s.cfg = cfg
		s.registry.Replace(cfg.Teams)
		s.tapGoals.SetGoals(cfg.TapGoals, s.ledgr.TotalTaps())
		s.pointGoals.SetGoals(cfg.PointGoals, s.ledgr.Stats().TotalDiamonds)
		s.mu.Unlock()

		if relayChanged {
			s.relay.SetURL(cfg.RelayURL)
		}

		s.hub.Broadcast(broadcast.Message{Type: msgConfig, Data: cfg})
		s.emitTaps()
		s.emitPoints()
		s.emitBattleScores()
		s.emitStreamScores()
		s.emitPanelStats()
		s.logger.Info(ctx, "configuration updated",
			logger.Int("teams", len(cfg.Teams)),
			logger.Bool("relayChanged", relayChanged))
	})
	return nil
}

// Gifts returns the cached purchasable-gift catalog.
func (s *Service) Gifts(ctx context.Context) []giftcatalog.Gift {
	s.mu.RLock()
	lang := s.cfg.GiftLang
	s.mu.RUnlock()
	return s.catalog.Gifts(ctx, lang)
}

// --- State snapshots ---

// Stats reports service state for the panel and monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	stats := s.ledgr.Stats()
	taps := s.ledgr.TotalTaps()
	battleScores := s.ledgr.BattleScores()
	streamScores := s.ledgr.StreamScores()
	started := s.started
	s.mu.RUnlock()

	out := map[string]interface{}{
		"started": started,
		"status":  s.relayStatus(),
		"stats": map[string]interface{}{
			"taps":     taps,
			"diamonds": stats.TotalDiamonds,
			"shares":   stats.TotalShares,
		},
		"scores":        battleScores,
		"stream_scores": streamScores,
		"timer":         s.timer.Snapshot(),
		"queueLength":   s.queue.Len(context.Background()),
		"overlays":      s.hub.ClientCount(),
	}
	return out
}

// Hub exposes the broadcast hub for the /ws endpoint.
func (s *Service) Hub() *broadcast.Hub {
	return s.hub
}

// connectState builds the snapshot pushed to freshly connected overlays.
func (s *Service) connectState() []broadcast.Message {
	s.mu.RLock()
	cfg := *s.cfg
	battleScores := s.ledgr.BattleScores()
	streamScores := s.ledgr.StreamScores()
	s.mu.RUnlock()

	return []broadcast.Message{
		{Type: msgConfig, Data: cfg},
		{Type: msgScores, Data: battleScores},
		{Type: msgStreamScores, Data: streamScores},
		{Type: msgTimerUpdate, Data: s.timer.Snapshot()},
	}
}

// --- Broadcast emitters ---

func (s *Service) emitBattleScores() {
	s.mu.RLock()
	scores := s.ledgr.BattleScores()
	s.mu.RUnlock()
	s.hub.Broadcast(broadcast.Message{Type: msgScores, Data: scores})
}

func (s *Service) emitStreamScores() {
	s.mu.RLock()
	scores := s.ledgr.StreamScores()
	s.mu.RUnlock()
	s.hub.Broadcast(broadcast.Message{Type: msgStreamScores, Data: scores})
}

// emitTaps reads tap goal progress, clearing the edge-triggered
// goalJustMet flag.
func (s *Service) emitTaps() {
	s.mu.Lock()
	progress := s.tapGoals.TakeProgress(s.ledgr.TotalTaps())
	if progress.JustMet {
		metrics.RecordGoalCrossing("taps")
	}
	color := s.cfg.TapHeartColor
	s.mu.Unlock()

	s.hub.Broadcast(broadcast.Message{Type: msgTapsUpdate, Data: goalPayload{
		Progress:  progress,
		FillColor: color,
	}})
}

func (s *Service) emitPoints() {
	s.mu.Lock()
	progress := s.pointGoals.TakeProgress(s.ledgr.Stats().TotalDiamonds)
	if progress.JustMet {
		metrics.RecordGoalCrossing("points")
	}
	color := s.cfg.TotalGoalColor
	s.mu.Unlock()

	s.hub.Broadcast(broadcast.Message{Type: msgPointsUpdate, Data: goalPayload{
		Progress:  progress,
		FillColor: color,
	}})
}

func (s *Service) emitPanelStats() {
	s.mu.RLock()
	stats := s.ledgr.Stats()
	taps := s.ledgr.TotalTaps()
	s.mu.RUnlock()

	s.hub.Broadcast(broadcast.Message{Type: msgStatsUpdate, Data: panelStats{
		Taps:     taps,
		Diamonds: stats.TotalDiamonds,
		Shares:   stats.TotalShares,
	}})
	s.syncSessionMetrics()
}

func (s *Service) emitStatus() {
	s.hub.Broadcast(broadcast.Message{Type: msgAppStatus, Data: map[string]string{
		"status": s.relayStatus(),
	}})
}

func (s *Service) relayStatus() string {
	if s.relay == nil {
		return relay.StatusDisconnected
	}
	return s.relay.Status()
}

func (s *Service) saveSession() {
	s.mu.RLock()
	snap := session.Snapshot{
		Stats:     s.ledgr.Stats(),
		TotalTaps: s.ledgr.TotalTaps(),
	}
	s.mu.RUnlock()
	s.store.Save(snap)
}

func (s *Service) syncSessionMetrics() {
	s.mu.RLock()
	stats := s.ledgr.Stats()
	taps := s.ledgr.TotalTaps()
	s.mu.RUnlock()
	metrics.UpdateSessionTotals(taps, stats.TotalDiamonds, stats.TotalShares)
}
