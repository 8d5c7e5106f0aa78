// Package goal tracks progress of a monotonic counter through an ordered
// list of named thresholds.
package goal

// Goal is one configured milestone.
type Goal struct {
	Threshold int    `json:"threshold" koanf:"threshold"`
	Name      string `json:"name" koanf:"name"`
}

// Fallback divisors used for the uncapped progress bar when no goals are
// configured, matching the overlay defaults.
const (
	DefaultTapDivisor   = 10_000
	DefaultPointDivisor = 50_000
)

// Progress is the derived visual state for a progress-bar overlay.
type Progress struct {
	Current       int     `json:"current"`
	GoalThreshold int     `json:"goalThreshold"`
	GoalName      string  `json:"currentGoalName"`
	NextGoalName  string  `json:"nextGoalName"`
	Percent       float64 `json:"percent"`
	JustMet       bool    `json:"goalJustMet"`
}

// Tracker computes which goal is current for a counter. The index is the
// count of thresholds already reached; it only moves forward as the
// counter grows, and is recomputed from scratch via Recalculate when the
// goal list changes or a session is reloaded.
type Tracker struct {
	goals         []Goal
	currentIndex  int
	justMet       bool
	fallbackDenom int
}

// NewTracker creates a tracker over an ordered goal list. fallbackDenom
// is the divisor for the uncapped "Infinito" bar shown with no goals.
func NewTracker(goals []Goal, fallbackDenom int) *Tracker {
	t := &Tracker{fallbackDenom: fallbackDenom}
	t.SetGoals(goals, 0)
	return t
}

// SetGoals replaces the goal list and recalculates the index for the
// given counter value. The just-met flag is dropped: crossing history
// does not survive a configuration change.
func (t *Tracker) SetGoals(goals []Goal, counter int) {
	cp := make([]Goal, len(goals))
	copy(cp, goals)
	t.goals = cp
	t.Recalculate(counter)
}

// Index returns the count of thresholds already reached.
func (t *Tracker) Index() int { return t.currentIndex }

// indexFor scans thresholds in order: the position of the first threshold
// exceeding the counter is the new index; all reached means index = len.
func (t *Tracker) indexFor(counter int) int {
	for i, g := range t.goals {
		if counter < g.Threshold {
			return i
		}
	}
	return len(t.goals)
}

// Check advances the index for the new counter value. The just-met flag
// is raised only when the index strictly increases into goal one or
// beyond; staying at zero never raises it. The flag is edge-triggered:
// it stays up until the next TakeProgress call consumes it.
func (t *Tracker) Check(counter int) {
	if len(t.goals) == 0 {
		return
	}
	newIndex := t.indexFor(counter)
	if newIndex > t.currentIndex && newIndex > 0 {
		t.justMet = true
	}
	t.currentIndex = newIndex
}

// Recalculate recomputes the index from scratch without raising the
// just-met flag, for goal-list changes and session reloads.
func (t *Tracker) Recalculate(counter int) {
	t.currentIndex = t.indexFor(counter)
	t.justMet = false
}

// TakeProgress builds the broadcast state for the counter and clears the
// just-met flag, so each crossing animates exactly once.
func (t *Tracker) TakeProgress(counter int) Progress {
	p := t.progress(counter)
	t.justMet = false
	return p
}

func (t *Tracker) progress(counter int) Progress {
	if len(t.goals) == 0 {
		denom := t.fallbackDenom
		if denom <= 0 {
			denom = DefaultTapDivisor
		}
		return Progress{
			Current:       counter,
			GoalThreshold: denom,
			GoalName:      "Infinito",
			NextGoalName:  "",
			Percent:       float64(counter) / float64(denom) * 100,
			JustMet:       false,
		}
	}

	if t.currentIndex >= len(t.goals) {
		return Progress{
			Current:       counter,
			GoalThreshold: t.goals[len(t.goals)-1].Threshold,
			GoalName:      "¡Completado!",
			NextGoalName:  "Máximo",
			Percent:       100,
			JustMet:       t.justMet,
		}
	}

	cur := t.goals[t.currentIndex]
	prev := 0
	if t.currentIndex > 0 {
		prev = t.goals[t.currentIndex-1].Threshold
	}

	percent := 0.0
	if cellRange := cur.Threshold - prev; cellRange > 0 {
		percent = float64(counter-prev) / float64(cellRange) * 100
	}
	percent = clampPercent(percent)

	next := "Final"
	if t.currentIndex+1 < len(t.goals) {
		next = t.goals[t.currentIndex+1].Name
	}

	return Progress{
		Current:       counter,
		GoalThreshold: cur.Threshold,
		GoalName:      cur.Name,
		NextGoalName:  "Siguiente: " + next,
		Percent:       percent,
		JustMet:       t.justMet,
	}
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
