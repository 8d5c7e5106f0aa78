// Package scoring defines how raw gift events convert into points.
package scoring

import (
	"github.com/niicolenco/tikbattle/internal/domain/model"
)

// Streakable gifts report intermediate frames while the viewer keeps
// tapping; only the closing frame carries the true repeat count.
const streakableGiftType = 1

// Option applies a configuration option to the Valuer.
type Option func(*Valuer)

// WithMinimumPoints sets the smallest point value a gift must reach to
// count. Values below one are ignored.
func WithMinimumPoints(minPoints int) Option {
	return func(v *Valuer) {
		if minPoints >= 1 {
			v.minPoints = minPoints
		}
	}
}

// Result is the outcome of valuing a single gift event.
type Result struct {
	// Points is diamondCount multiplied by repeatCount.
	Points int

	// Suppressed is true for intermediate combo frames, which must be
	// ignored entirely so the closing frame is counted exactly once.
	Suppressed bool
}

// Countable reports whether the gift should mutate any state.
func (r Result) Countable() bool {
	return !r.Suppressed && r.Points > 0
}

// Valuer turns decoded gift events into point values.
type Valuer struct {
	minPoints int
}

// NewValuer creates a Valuer with configuration options.
func NewValuer(opts ...Option) *Valuer {
	v := &Valuer{
		minPoints: 1,
	}

	// Apply all options
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Value computes the point value of a gift event.
//
// Combo suppression: when the gift is streakable (giftType 1) and the
// frame is not the closing one (repeatEnd false), the whole event is an
// in-progress streak frame and yields no points.
func (v *Valuer) Value(g model.Gift) Result {
	if g.GiftType == streakableGiftType && !g.RepeatEnd {
		return Result{Suppressed: true}
	}

	repeat := g.RepeatCount
	if repeat <= 0 {
		repeat = 1
	}

	points := g.DiamondCount * repeat
	if points < v.minPoints {
		return Result{Points: 0}
	}
	return Result{Points: points}
}
