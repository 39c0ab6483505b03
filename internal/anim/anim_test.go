package anim

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestValue_MonotonicIncreasing(t *testing.T) {
	v := NewValue(0, 500*time.Millisecond)
	if !v.SetTarget(100, t0) {
		t.Fatal("SetTarget returned false for a new target")
	}

	prev := v.Current()
	for ms := 0; ms < 500; ms += 25 {
		v.Advance(at(ms))
		cur := v.Current()
		if cur < prev {
			t.Fatalf("at %dms current %v decreased from %v", ms, cur, prev)
		}
		if cur < 0 || cur > 100 {
			t.Fatalf("at %dms current %v outside [0,100]", ms, cur)
		}
		prev = cur
	}

	if v.Advance(at(500)) {
		t.Error("Advance still animating at elapsed == duration")
	}
	if v.Current() != 100 {
		t.Errorf("final current = %v, want exactly 100", v.Current())
	}
	if v.State() != Idle {
		t.Errorf("state = %v, want idle", v.State())
	}
}

func TestValue_MonotonicDecreasing(t *testing.T) {
	v := NewValue(100, 500*time.Millisecond)
	v.SetTarget(0.3, t0)

	prev := v.Current()
	for ms := 0; ms < 500; ms += 25 {
		v.Advance(at(ms))
		cur := v.Current()
		if cur > prev {
			t.Fatalf("at %dms current %v increased from %v", ms, cur, prev)
		}
		if cur < 0.3 || cur > 100 {
			t.Fatalf("at %dms current %v outside [0.3,100]", ms, cur)
		}
		prev = cur
	}

	v.Advance(at(900))
	if v.Current() != 0.3 {
		t.Errorf("final current = %v, want exactly 0.3", v.Current())
	}
}

func TestValue_RetargetStartsFromDisplayedValue(t *testing.T) {
	v := NewValue(0, 500*time.Millisecond)
	v.SetTarget(100, t0)
	v.Advance(at(250))

	mid := v.Current()
	want := EaseOutCubic(0.5) * 100
	if mid != want {
		t.Fatalf("mid-flight current = %v, want %v", mid, want)
	}
	if mid <= 0 || mid >= 100 {
		t.Fatalf("mid-flight current %v should be strictly between 0 and 100", mid)
	}

	if !v.SetTarget(80, at(250)) {
		t.Fatal("retarget did not start a new animation")
	}
	if v.Current() != mid {
		t.Fatalf("retarget moved current from %v to %v", mid, v.Current())
	}

	// Zero elapsed on the new animation: still exactly at the interrupted value.
	v.Advance(at(250))
	if v.Current() != mid {
		t.Errorf("new animation starts at %v, want %v (not 0 or 100)", v.Current(), mid)
	}

	prev := v.Current()
	for ms := 275; ms < 750; ms += 25 {
		v.Advance(at(ms))
		cur := v.Current()
		if cur > prev || cur < 80 {
			t.Fatalf("at %dms current %v, prev %v: expected non-increasing toward 80", ms, cur, prev)
		}
		prev = cur
	}

	v.Advance(at(750))
	if v.Current() != 80 {
		t.Errorf("final current = %v, want exactly 80", v.Current())
	}
	if v.State() != Idle {
		t.Errorf("state = %v, want idle", v.State())
	}
}

func TestValue_SameTargetDoesNotRestart(t *testing.T) {
	v := NewValue(0, 500*time.Millisecond)
	v.SetTarget(100, t0)
	v.Advance(at(200))

	if v.SetTarget(100, at(200)) {
		t.Error("re-setting the running target restarted the animation")
	}
	v.Advance(at(500))
	if v.Current() != 100 || v.State() != Idle {
		t.Errorf("expected finished at 100 on original schedule, got %v (%v)", v.Current(), v.State())
	}

	if v.SetTarget(100, at(600)) {
		t.Error("setting the displayed value on an idle field started an animation")
	}
}

func TestValue_ZeroDurationSnaps(t *testing.T) {
	v := NewValue(10, 0)
	v.SetTarget(42, t0)
	if v.Current() != 42 || v.State() != Idle {
		t.Errorf("zero duration: current=%v state=%v, want 42 idle", v.Current(), v.State())
	}
}

func TestEaseOutCubic(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.5, 0.875}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := EaseOutCubic(tt.in); got != tt.want {
			t.Errorf("EaseOutCubic(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFrameInterval(t *testing.T) {
	d := FrameInterval(60)
	if d < 16*time.Millisecond || d > 17*time.Millisecond {
		t.Errorf("FrameInterval(60) = %v, want ~16.7ms", d)
	}
	if FrameInterval(0) != FrameInterval(DefaultFPS) {
		t.Error("FrameInterval(0) should fall back to the default rate")
	}
}

func TestEngine_FirstSetCountsUpFromZero(t *testing.T) {
	e := New(500*time.Millisecond, 60)
	if !e.Set(FieldTarget, 1000, t0) {
		t.Fatal("first Set did not start an animation")
	}
	if e.Value(FieldTarget) != 0 {
		t.Errorf("initial display = %v, want 0", e.Value(FieldTarget))
	}
	if e.State(FieldTarget) != Animating || !e.Animating() {
		t.Error("engine should be animating after first Set")
	}

	e.Tick(at(500))
	if e.Value(FieldTarget) != 1000 {
		t.Errorf("after duration = %v, want 1000", e.Value(FieldTarget))
	}
	if e.Animating() {
		t.Error("engine still animating after duration elapsed")
	}
}

func TestEngine_SingleFramePending(t *testing.T) {
	e := New(500*time.Millisecond, 60)
	if cmd := e.Schedule(); cmd != nil {
		t.Error("Schedule with nothing animating should return nil")
	}

	e.Set(FieldCompleted, 50, t0)
	if cmd := e.Schedule(); cmd == nil {
		t.Fatal("Schedule returned nil while animating")
	}
	if cmd := e.Schedule(); cmd != nil {
		t.Error("second Schedule while a frame is pending should return nil")
	}

	// Delivering the pending frame mid-animation schedules the next one.
	if cmd := e.Update(FrameMsg{ID: e.ID(), Time: at(100), tag: e.tag}); cmd == nil {
		t.Error("Update mid-animation should schedule another frame")
	}
	if v := e.Value(FieldCompleted); v <= 0 || v >= 50 {
		t.Errorf("value after frame = %v, want strictly between 0 and 50", v)
	}

	// Final frame lands on the target and stops scheduling.
	if cmd := e.Update(FrameMsg{ID: e.ID(), Time: at(600), tag: e.tag}); cmd != nil {
		t.Error("Update after completion should not schedule")
	}
	if e.Value(FieldCompleted) != 50 {
		t.Errorf("final = %v, want 50", e.Value(FieldCompleted))
	}
}

func TestEngine_IgnoresForeignFrames(t *testing.T) {
	a := New(500*time.Millisecond, 60)
	b := New(500*time.Millisecond, 60)
	a.Set(FieldForecast, 10, t0)
	a.Schedule()

	if cmd := a.Update(FrameMsg{ID: b.ID(), Time: at(600), tag: a.tag}); cmd != nil {
		t.Error("frame from another engine scheduled work")
	}
	if a.Value(FieldForecast) != 0 {
		t.Errorf("foreign frame advanced value to %v", a.Value(FieldForecast))
	}
}

func TestEngine_StopCancelsPendingFrame(t *testing.T) {
	e := New(500*time.Millisecond, 60)
	e.Set(FieldGap, 300, t0)
	e.Schedule()
	late := FrameMsg{ID: e.ID(), Time: at(100), tag: e.tag}

	e.Stop()
	e.Stop() // idempotent

	if !e.Stopped() {
		t.Fatal("Stopped() = false after Stop")
	}
	if cmd := e.Update(late); cmd != nil {
		t.Error("late frame after Stop scheduled work")
	}
	if e.Tick(at(200)) {
		t.Error("Tick after Stop reported animation")
	}
	if e.Set(FieldGap, 10, at(300)) {
		t.Error("Set after Stop started an animation")
	}
	if e.Schedule() != nil {
		t.Error("Schedule after Stop returned a command")
	}
	if e.Value(FieldGap) != 0 {
		t.Errorf("torn-down value = %v, want 0", e.Value(FieldGap))
	}
}

func TestEngine_SetDurationAppliesToNextAnimation(t *testing.T) {
	e := New(500*time.Millisecond, 60)
	e.Set(FieldPipeline, 10, t0)
	e.SetDuration(100 * time.Millisecond)

	// The running animation keeps its 500ms schedule.
	e.Tick(at(100))
	if e.Value(FieldPipeline) == 10 {
		t.Fatal("running animation picked up the new duration")
	}
	e.Tick(at(500))

	e.Set(FieldPipeline, 20, at(500))
	e.Tick(at(600))
	if e.Value(FieldPipeline) != 20 {
		t.Errorf("new animation = %v, want 20 after 100ms", e.Value(FieldPipeline))
	}
}
