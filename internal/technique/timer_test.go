package technique

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingHaptics counts pulses and optionally fails, to verify the
// best-effort contract.
type recordingHaptics struct {
	pulses int
	err    error
}

func (h *recordingHaptics) Pulse() error {
	h.pulses++
	return h.err
}

// TestTimerCountdown verifies one decrement per tick and the on-zero
// callback firing exactly once, with the tick callback released afterwards.
func TestTimerCountdown(t *testing.T) {
	sched := NewManualScheduler()
	fired := 0
	tm := NewTimer(sched, nil, discardLogger(), func() { fired++ })

	tm.Start(3)
	if got := tm.Remaining(); got != 3 {
		t.Fatalf("Remaining = %d, want 3", got)
	}
	sched.Tick(2)
	if got := tm.Remaining(); got != 1 {
		t.Errorf("Remaining after 2 ticks = %d, want 1", got)
	}
	if fired != 0 {
		t.Errorf("fired early: %d", fired)
	}
	sched.Tick(1)
	if got := tm.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
	if sched.Active() != 0 {
		t.Errorf("tick callback not released: %d active", sched.Active())
	}
	// Stray ticks after zero must do nothing.
	sched.Tick(3)
	if fired != 1 {
		t.Errorf("fired after release = %d, want 1", fired)
	}
}

// TestTimerPauseResumeIdempotent verifies that pausing while paused and
// resuming while running are no-ops: no missed or double decrements.
func TestTimerPauseResumeIdempotent(t *testing.T) {
	sched := NewManualScheduler()
	tm := NewTimer(sched, nil, discardLogger(), nil)

	tm.Start(10)
	sched.Tick(2)
	tm.Pause()
	tm.Pause()
	sched.Tick(5)
	if got := tm.Remaining(); got != 8 {
		t.Errorf("Remaining while paused = %d, want 8", got)
	}
	tm.Resume()
	tm.Resume()
	sched.Tick(1)
	if got := tm.Remaining(); got != 7 {
		t.Errorf("Remaining after resume = %d, want 7", got)
	}
	if sched.Active() != 1 {
		t.Errorf("active callbacks = %d, want 1", sched.Active())
	}
}

// TestTimerResumeAfterZero verifies a finished countdown cannot be resumed
// back to life.
func TestTimerResumeAfterZero(t *testing.T) {
	sched := NewManualScheduler()
	fired := 0
	tm := NewTimer(sched, nil, discardLogger(), func() { fired++ })

	tm.Start(1)
	sched.Tick(1)
	tm.Resume()
	sched.Tick(3)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
	if sched.Active() != 0 {
		t.Errorf("active callbacks = %d, want 0", sched.Active())
	}
}

// TestTimerSkipFiresSynchronously verifies Skip zeroes the counter and runs
// the side effect before returning, even when paused.
func TestTimerSkipFiresSynchronously(t *testing.T) {
	sched := NewManualScheduler()
	fired := 0
	tm := NewTimer(sched, nil, discardLogger(), func() { fired++ })

	tm.Start(30)
	tm.Pause()
	tm.Skip()
	if fired != 1 {
		t.Errorf("fired = %d, want 1 (synchronous)", fired)
	}
	if got := tm.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

// TestTimerReset verifies Reset restores the configured duration and stops
// ticking.
func TestTimerReset(t *testing.T) {
	sched := NewManualScheduler()
	tm := NewTimer(sched, nil, discardLogger(), nil)

	tm.Start(20)
	sched.Tick(5)
	tm.Reset()
	if got := tm.Remaining(); got != 20 {
		t.Errorf("Remaining after reset = %d, want 20", got)
	}
	if tm.Ticking() {
		t.Error("timer still ticking after reset")
	}
	sched.Tick(3)
	if got := tm.Remaining(); got != 20 {
		t.Errorf("Remaining decremented while stopped: %d", got)
	}
}

// TestTimerStopReleasesCallback verifies that Stop prevents any further
// firing: the unmount/cancel contract.
func TestTimerStopReleasesCallback(t *testing.T) {
	sched := NewManualScheduler()
	fired := 0
	tm := NewTimer(sched, nil, discardLogger(), func() { fired++ })

	tm.Start(2)
	tm.Stop()
	if sched.Active() != 0 {
		t.Fatalf("active callbacks = %d, want 0", sched.Active())
	}
	sched.Tick(5)
	if fired != 0 {
		t.Errorf("fired = %d, want 0", fired)
	}
}

// TestTimerHapticsBestEffort verifies a failing vibration primitive is
// logged and ignored: the countdown still completes and onZero still fires.
func TestTimerHapticsBestEffort(t *testing.T) {
	sched := NewManualScheduler()
	h := &recordingHaptics{err: errors.New("vibration unsupported")}
	fired := 0
	tm := NewTimer(sched, h, discardLogger(), func() { fired++ })

	tm.Start(1)
	sched.Tick(1)
	if h.pulses != 1 {
		t.Errorf("pulses = %d, want 1", h.pulses)
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1 despite haptics error", fired)
	}
}
