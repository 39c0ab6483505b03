// Package anim interpolates displayed numbers toward freshly computed
// targets. Every field runs its own Idle/Animating state machine. Frames
// are driven by Bubble Tea tick messages.
package anim

import (
	"math"
	"time"
)

// State is the animation state of a single Value.
type State int

const (
	Idle State = iota
	Animating
)

func (s State) String() string {
	if s == Animating {
		return "animating"
	}
	return "idle"
}

// Value animates one numeric field. The zero value is an idle field at 0.
type Value struct {
	from     float64
	to       float64
	start    time.Time
	duration time.Duration
	current  float64
	state    State
}

// NewValue returns an idle value displaying v.
func NewValue(v float64, duration time.Duration) Value {
	return Value{from: v, to: v, current: v, duration: duration}
}

// Current is the value to display right now.
func (v *Value) Current() float64 { return v.current }

// Target is where the value is heading (or resting).
func (v *Value) Target() float64 { return v.to }

// State reports whether the value is mid-animation.
func (v *Value) State() State { return v.state }

// SetTarget points the value at to. If it is already showing to, or already
// animating toward it, nothing changes and false is returned. Otherwise a
// new animation starts from the currently displayed value at now.
func (v *Value) SetTarget(to float64, now time.Time) bool {
	if v.state == Idle && v.current == to {
		v.to = to
		return false
	}
	if v.state == Animating && v.to == to {
		return false
	}

	v.from = v.current
	v.to = to
	v.start = now
	v.state = Animating

	if v.duration <= 0 {
		v.finish()
	}
	return true
}

// Advance moves current along the eased curve for the time elapsed since
// the animation started. It returns true while still animating.
func (v *Value) Advance(now time.Time) bool {
	if v.state != Animating {
		return false
	}

	elapsed := now.Sub(v.start)
	if elapsed >= v.duration {
		v.finish()
		return false
	}

	p := float64(elapsed) / float64(v.duration)
	if p < 0 {
		p = 0
	}
	next := v.from + (v.to-v.from)*EaseOutCubic(p)

	lo, hi := math.Min(v.from, v.to), math.Max(v.from, v.to)
	v.current = math.Max(lo, math.Min(hi, next))
	return true
}

// finish snaps exactly onto the target.
func (v *Value) finish() {
	v.current = v.to
	v.from = v.to
	v.state = Idle
}

// EaseOutCubic decelerates toward the end: fast start, gentle landing.
func EaseOutCubic(p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	}
	inv := 1 - p
	return 1 - inv*inv*inv
}
