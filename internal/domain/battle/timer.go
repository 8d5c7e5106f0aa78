// Package battle implements the wall-clock-anchored countdown state machine.
//
// The timer is the single authority over running/paused state and the
// battle deadline. It knows nothing about scores; the aggregator clears
// battle totals on start and resolves the winner on end.
package battle

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/niicolenco/tikbattle/pkg/metrics"
)

// Default timer configuration constants.
const (
	defaultTickInterval = 500 * time.Millisecond
)

// State of the countdown.
type State int

// Timer states. Exactly one is active at a time.
const (
	Idle State = iota
	Running
	Paused
)

// Snapshot is the broadcastable view of the timer.
type Snapshot struct {
	Seconds float64 `json:"seconds"`
	Running bool    `json:"running"`
	Paused  bool    `json:"paused"`
}

// Option applies a configuration option to the Timer.
type Option func(*Timer)

// WithClock sets the clock, letting tests drive time deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(t *Timer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithTickInterval sets the cadence of periodic timer updates.
func WithTickInterval(interval time.Duration) Option {
	return func(t *Timer) {
		if interval > 0 {
			t.tickInterval = interval
		}
	}
}

// WithUpdateFunc sets the callback invoked with a fresh snapshot on every
// tick and state transition. Invoked from the tick goroutine as well as
// from callers; it must not call back into the Timer.
func WithUpdateFunc(fn func(Snapshot)) Option {
	return func(t *Timer) {
		t.onUpdate = fn
	}
}

// WithEndFunc sets the callback invoked whenever the timer reaches Idle
// through Stop or natural expiry.
func WithEndFunc(fn func()) Option {
	return func(t *Timer) {
		t.onEnd = fn
	}
}

// Timer is the countdown state machine.
type Timer struct {
	mu           sync.Mutex
	clock        clockwork.Clock
	tickInterval time.Duration

	state            State
	endsAt           time.Time     // meaningful while Running
	remainingOnPause time.Duration // meaningful while Paused
	stopCh           chan struct{} // closes to cancel the tick loop

	onUpdate func(Snapshot)
	onEnd    func()
}

// NewTimer creates an idle timer with configuration options.
func NewTimer(opts ...Option) *Timer {
	t := &Timer{
		clock:        clockwork.NewRealClock(),
		tickInterval: defaultTickInterval,
	}

	// Apply all options
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start begins a countdown of the given duration from any state. Any
// previous round's tick loop is cancelled first.
func (t *Timer) Start(duration time.Duration) {
	t.mu.Lock()
	t.stopLoopLocked()
	t.state = Running
	t.endsAt = t.clock.Now().Add(duration)
	t.remainingOnPause = 0
	t.startLoopLocked()
	t.mu.Unlock()

	metrics.UpdateTimerState(int(Running))
	t.emitUpdate()
}

// Stop ends the countdown from any state and reports the end to the
// consumer. Stopping an idle timer still emits, matching the control
// surface contract.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopLoopLocked()
	t.state = Idle
	t.remainingOnPause = 0
	t.mu.Unlock()

	metrics.UpdateTimerState(int(Idle))
	t.emitUpdate()
	if t.onEnd != nil {
		t.onEnd()
	}
}

// Pause freezes the countdown, snapshotting the remaining time. No-op
// unless Running.
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return
	}
	t.stopLoopLocked()
	t.state = Paused
	t.remainingOnPause = t.endsAt.Sub(t.clock.Now())
	if t.remainingOnPause < 0 {
		t.remainingOnPause = 0
	}
	t.mu.Unlock()

	metrics.UpdateTimerState(int(Paused))
	t.emitUpdate()
}

// Resume re-anchors the deadline from the paused remainder and restarts
// the tick loop. No-op unless Paused.
func (t *Timer) Resume() {
	t.mu.Lock()
	if t.state != Paused {
		t.mu.Unlock()
		return
	}
	t.state = Running
	t.endsAt = t.clock.Now().Add(t.remainingOnPause)
	t.remainingOnPause = 0
	t.startLoopLocked()
	t.mu.Unlock()

	metrics.UpdateTimerState(int(Running))
	t.emitUpdate()
}

// TogglePause flips Running and Paused; the control surface exposes a
// single pause button with toggle semantics.
func (t *Timer) TogglePause() {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	switch state {
	case Running:
		t.Pause()
	case Paused:
		t.Resume()
	case Idle:
		// nothing to toggle
	}
}

// AddTime shifts the live anchor by delta: the deadline while Running,
// the frozen remainder while Paused. No-op while Idle. Negative deltas
// are allowed; expiry is left to the next tick.
func (t *Timer) AddTime(delta time.Duration) {
	t.mu.Lock()
	switch t.state {
	case Running:
		t.endsAt = t.endsAt.Add(delta)
	case Paused:
		t.remainingOnPause += delta
		if t.remainingOnPause < 0 {
			t.remainingOnPause = 0
		}
	case Idle:
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.emitUpdate()
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsRunning reports whether the countdown is live. The battle accrual
// gate reads this.
func (t *Timer) IsRunning() bool {
	return t.State() == Running
}

// Snapshot derives the display view from the wall-clock anchors, so
// reads are exact regardless of tick cadence.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timer) snapshotLocked() Snapshot {
	switch t.state {
	case Running:
		remaining := t.endsAt.Sub(t.clock.Now())
		if remaining < 0 {
			remaining = 0
		}
		return Snapshot{Seconds: remaining.Seconds(), Running: true}
	case Paused:
		return Snapshot{Seconds: t.remainingOnPause.Seconds(), Paused: true}
	default:
		return Snapshot{}
	}
}

// startLoopLocked spawns the tick loop. The ticker is created here, under
// the lock, so fake clocks can advance immediately after Start returns.
func (t *Timer) startLoopLocked() {
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	ticker := t.clock.NewTicker(t.tickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.Chan():
				if expired := t.tick(stopCh); expired {
					return
				}
			}
		}
	}()
}

func (t *Timer) stopLoopLocked() {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

// tick publishes a snapshot and handles natural expiry. The stop channel
// identifies the loop generation: a tick racing a restart must not end
// the newer round.
func (t *Timer) tick(stopCh chan struct{}) bool {
	t.mu.Lock()
	if t.state != Running || t.stopCh != stopCh {
		t.mu.Unlock()
		return true
	}
	expired := !t.endsAt.After(t.clock.Now())
	if expired {
		t.stopLoopLocked()
		t.state = Idle
		t.remainingOnPause = 0
	}
	t.mu.Unlock()

	if !expired {
		t.emitUpdate()
		return false
	}

	metrics.UpdateTimerState(int(Idle))
	t.emitUpdate()
	if t.onEnd != nil {
		t.onEnd()
	}
	return true
}

func (t *Timer) emitUpdate() {
	if t.onUpdate == nil {
		return
	}
	t.onUpdate(t.Snapshot())
}
