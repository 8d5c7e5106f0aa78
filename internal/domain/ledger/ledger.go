// Package ledger owns the per-team scores and global session counters.
//
// The ledger is plain data plus arithmetic. It is mutated only by the
// aggregator's run loop, so it carries no locking of its own; everything
// read by other goroutines leaves through copying snapshot methods.
package ledger

// Scope selects which counters a reset clears.
type Scope string

// Reset scopes accepted from the control surface.
const (
	ScopeBattle Scope = "battle"
	ScopeStream Scope = "stream"
	ScopeTaps   Scope = "taps"
	ScopePoints Scope = "points"
)

// Stats are the global session counters shown on the panel.
type Stats struct {
	TotalDiamonds int `json:"totalDiamonds"`
	TotalShares   int `json:"totalShares"`
}

// Ledger holds per-team stream and battle totals plus the session counters.
type Ledger struct {
	streamScores map[string]int
	battleScores map[string]int
	totalTaps    int
	stats        Stats
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		streamScores: make(map[string]int),
		battleScores: make(map[string]int),
	}
}

// Restore seeds the session counters from a persisted snapshot. Per-team
// scores are in-memory only and always start from zero.
func (l *Ledger) Restore(totalTaps int, stats Stats) {
	if totalTaps > 0 {
		l.totalTaps = totalTaps
	}
	if stats.TotalDiamonds > 0 {
		l.stats.TotalDiamonds = stats.TotalDiamonds
	}
	if stats.TotalShares > 0 {
		l.stats.TotalShares = stats.TotalShares
	}
}

// TotalTaps returns the cumulative tap count.
func (l *Ledger) TotalTaps() int { return l.totalTaps }

// Stats returns the global session counters.
func (l *Ledger) Stats() Stats { return l.stats }

// AddTaps applies a like event using the reconciliation rule: an
// authoritative total strictly greater than the current count is adopted
// as-is (the upstream resends running totals); otherwise a positive batch
// increments. Returns true when the count changed.
func (l *Ledger) AddTaps(total int, hasTotal bool, batch int) bool {
	switch {
	case hasTotal && total > l.totalTaps:
		l.totalTaps = total
		return true
	case batch > 0:
		l.totalTaps += batch
		return true
	default:
		return false
	}
}

// AddShares adds to the share counter.
func (l *Ledger) AddShares(amount int) {
	l.stats.TotalShares += amount
}

// AddDiamonds adds gift points to the global diamond counter.
func (l *Ledger) AddDiamonds(points int) {
	l.stats.TotalDiamonds += points
}

// AddStreamPoints adds gift points to a team's cumulative stream total.
func (l *Ledger) AddStreamPoints(teamID string, points int) {
	l.streamScores[teamID] += points
}

// AddBattlePoints adds gift points to a team's battle total. The caller
// decides whether accrual is permitted; the ledger just adds.
func (l *Ledger) AddBattlePoints(teamID string, points int) {
	l.battleScores[teamID] += points
}

// ZeroBattle resets the battle scores to explicit zeros for the given
// teams so renderers see every configured team at 0 instead of missing.
func (l *Ledger) ZeroBattle(teamIDs []string) {
	l.battleScores = make(map[string]int, len(teamIDs))
	for _, id := range teamIDs {
		l.battleScores[id] = 0
	}
}

// Reset clears only the counters selected by scope. Battle and stream
// scores, taps, and diamond points are independent: clearing one never
// touches the others.
func (l *Ledger) Reset(scope Scope) {
	switch scope {
	case ScopeBattle:
		l.battleScores = make(map[string]int)
	case ScopeStream:
		l.streamScores = make(map[string]int)
	case ScopeTaps:
		l.totalTaps = 0
	case ScopePoints:
		l.stats.TotalDiamonds = 0
	}
}

// ResetSession zeroes everything a "new session" clears: taps, shares,
// diamonds, and both per-team score maps.
func (l *Ledger) ResetSession() {
	l.totalTaps = 0
	l.stats = Stats{}
	l.battleScores = make(map[string]int)
	l.streamScores = make(map[string]int)
}

// BattleScores returns a copy of the battle score map.
func (l *Ledger) BattleScores() map[string]int {
	return copyScores(l.battleScores)
}

// StreamScores returns a copy of the cumulative stream score map.
func (l *Ledger) StreamScores() map[string]int {
	return copyScores(l.streamScores)
}

// Winner returns the team id with the highest battle score, first team in
// iteration order winning ties. A maximum of zero or below yields no
// winner. Iteration follows the given order so the tie-break matches the
// configured team order.
func (l *Ledger) Winner(order []string) (string, bool) {
	var winner string
	maxScore := 0
	for _, id := range order {
		if score := l.battleScores[id]; score > maxScore {
			maxScore = score
			winner = id
		}
	}
	return winner, winner != ""
}

func copyScores(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for id, score := range src {
		dst[id] = score
	}
	return dst
}
