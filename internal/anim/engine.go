package anim

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

// Field names an animated dashboard figure.
type Field string

const (
	FieldTarget       Field = "target"
	FieldCompleted    Field = "completed"
	FieldForecast     Field = "forecast"
	FieldGap          Field = "gap"
	FieldPipeline     Field = "pipeline"
	FieldAchievement  Field = "achievement_rate"
	FieldForecastRate Field = "forecast_rate"
)

// DefaultDuration is how long a value takes to reach a new target.
const DefaultDuration = 500 * time.Millisecond

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// FrameMsg advances an Engine by one frame. Messages from a stopped or
// different engine are ignored.
type FrameMsg struct {
	ID   int
	Time time.Time
	tag  int
}

// FrameInterval converts a frame rate into the delay between frames.
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Duration(harmonica.FPS(fps) * float64(time.Second))
}

// Engine owns the animated values of one view. It is not safe for
// concurrent use; drive it from the Bubble Tea update loop.
type Engine struct {
	id       int
	tag      int
	duration time.Duration
	interval time.Duration
	values   map[Field]*Value
	pending  bool
	stopped  bool
}

// New creates an engine whose animations last duration and whose frames
// fire fps times per second.
func New(duration time.Duration, fps int) *Engine {
	return &Engine{
		id:       nextID(),
		duration: duration,
		interval: FrameInterval(fps),
		values:   make(map[Field]*Value),
	}
}

// ID identifies the engine in FrameMsg.
func (e *Engine) ID() int { return e.id }

// Duration is the configured animation length.
func (e *Engine) Duration() time.Duration { return e.duration }

// SetDuration changes the length of animations started from now on.
// Animations already running keep their original schedule.
func (e *Engine) SetDuration(d time.Duration) { e.duration = d }

// Set retargets field f. A field seen for the first time counts up from
// zero. It reports whether a new animation started.
func (e *Engine) Set(f Field, to float64, now time.Time) bool {
	if e.stopped {
		return false
	}
	v, ok := e.values[f]
	if !ok {
		nv := NewValue(0, e.duration)
		v = &nv
		e.values[f] = v
	}
	if v.state == Idle {
		v.duration = e.duration
	}
	return v.SetTarget(to, now)
}

// SetAll retargets several fields with one timestamp.
func (e *Engine) SetAll(targets map[Field]float64, now time.Time) bool {
	started := false
	for f, to := range targets {
		if e.Set(f, to, now) {
			started = true
		}
	}
	return started
}

// Value returns the displayed value of f, or 0 if f was never set.
func (e *Engine) Value(f Field) float64 {
	if v, ok := e.values[f]; ok {
		return v.Current()
	}
	return 0
}

// State returns the state of f.
func (e *Engine) State(f Field) State {
	if v, ok := e.values[f]; ok {
		return v.State()
	}
	return Idle
}

// Animating reports whether any field is still moving.
func (e *Engine) Animating() bool {
	for _, v := range e.values {
		if v.State() == Animating {
			return true
		}
	}
	return false
}

// Tick advances every field to now and reports whether any is still moving.
func (e *Engine) Tick(now time.Time) bool {
	if e.stopped {
		return false
	}
	moving := false
	for _, v := range e.values {
		if v.Advance(now) {
			moving = true
		}
	}
	return moving
}

// Schedule returns a command that delivers the next frame, or nil when
// nothing is animating, a frame is already pending, or the engine stopped.
func (e *Engine) Schedule() tea.Cmd {
	if e.stopped || e.pending || !e.Animating() {
		return nil
	}
	e.pending = true

	id, tag := e.id, e.tag
	return tea.Tick(e.interval, func(t time.Time) tea.Msg {
		return FrameMsg{ID: id, Time: t, tag: tag}
	})
}

// Update applies a frame and schedules the next one while animating.
func (e *Engine) Update(msg FrameMsg) tea.Cmd {
	if e.stopped || msg.ID != e.id || msg.tag != e.tag {
		return nil
	}
	e.pending = false
	e.Tick(msg.Time)
	return e.Schedule()
}

// Stop tears the engine down. Any frame still in flight is dropped when it
// arrives. Calling Stop more than once is a no-op.
func (e *Engine) Stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	e.tag++
	e.pending = false
	e.values = make(map[Field]*Value)
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool { return e.stopped }
