package technique

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler abstracts the host's repeating-timer primitive so that engines
// never touch time.Ticker directly. Every invokes fn once per interval until
// the returned stop function is called. stop is idempotent and no fn call is
// started after it returns.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler runs callbacks on a goroutine fed by a time.Ticker.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler is a Scheduler whose time is advanced explicitly with
// Tick. Hosts without a real clock (and tests) use it to drive countdowns
// deterministically.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func()
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{fns: make(map[int]func())}
}

// Every implements Scheduler.
func (m *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.fns[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.fns, id)
		m.mu.Unlock()
	}
}

// Tick fires every registered callback n times, in registration order.
func (m *ManualScheduler) Tick(n int) {
	for ; n > 0; n-- {
		m.mu.Lock()
		fns := make([]func(), 0, len(m.fns))
		for id := 0; id < m.nextID; id++ {
			if fn, ok := m.fns[id]; ok {
				fns = append(fns, fn)
			}
		}
		m.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// Active returns the number of callbacks still scheduled. Useful for
// asserting that a cancelled engine released its tick callback.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

// Haptics is the host's vibration primitive. Pulse is best-effort: an error
// is logged and otherwise ignored, never surfaced to the lifter.
type Haptics interface {
	Pulse() error
}

// NopHaptics is the Haptics used when the host has no vibration support.
type NopHaptics struct{}

// Pulse implements Haptics.
func (NopHaptics) Pulse() error { return nil }

// Timer is a one-second-resolution countdown with pause/resume/reset/skip.
// On reaching zero while active it stops ticking, fires a best-effort haptic
// pulse and invokes the onZero callback. The tick callback registered with
// the Scheduler is released whenever the timer is not actively ticking, so a
// stopped timer can never fire.
type Timer struct {
	mu       sync.Mutex
	sched    Scheduler
	haptics  Haptics
	log      *slog.Logger
	onZero   func()
	duration int
	remaining int
	ticking  bool
	stopTick func()
}

// NewTimer creates a countdown timer. onZero may be nil; haptics may be nil
// (treated as NopHaptics).
func NewTimer(sched Scheduler, haptics Haptics, log *slog.Logger, onZero func()) *Timer {
	if haptics == nil {
		haptics = NopHaptics{}
	}
	return &Timer{sched: sched, haptics: haptics, log: log, onZero: onZero}
}

// Start resets the counter to seconds and begins ticking.
func (t *Timer) Start(seconds int) {
	t.mu.Lock()
	t.duration = seconds
	t.remaining = seconds
	t.startLocked()
	t.mu.Unlock()
}

// Pause stops ticking without losing the remaining time.
// Pausing an already-paused timer is a no-op.
func (t *Timer) Pause() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

// Resume restarts ticking from the remaining time. Resuming a running or
// finished timer is a no-op.
func (t *Timer) Resume() {
	t.mu.Lock()
	if !t.ticking && t.remaining > 0 {
		t.startLocked()
	}
	t.mu.Unlock()
}

// Reset restores the counter to the configured duration and stops ticking.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.stopLocked()
	t.remaining = t.duration
	t.mu.Unlock()
}

// Skip sets the counter to zero and fires the zero-reached side effect
// synchronously, regardless of paused state.
func (t *Timer) Skip() {
	t.mu.Lock()
	t.stopLocked()
	t.remaining = 0
	t.mu.Unlock()
	t.fire()
}

// Stop releases the tick callback without firing. Used on cancel/unmount;
// no tick is delivered after Stop returns.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

// Remaining returns the seconds left on the counter.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Ticking reports whether the countdown is actively running.
func (t *Timer) Ticking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticking
}

func (t *Timer) startLocked() {
	t.stopLocked()
	if t.remaining <= 0 {
		return
	}
	t.ticking = true
	t.stopTick = t.sched.Every(time.Second, t.tick)
}

func (t *Timer) stopLocked() {
	t.ticking = false
	if t.stopTick != nil {
		t.stopTick()
		t.stopTick = nil
	}
}

func (t *Timer) tick() {
	t.mu.Lock()
	if !t.ticking {
		// A tick already in flight when the timer was paused or stopped.
		t.mu.Unlock()
		return
	}
	t.remaining--
	if t.remaining > 0 {
		t.mu.Unlock()
		return
	}
	t.remaining = 0
	t.stopLocked()
	t.mu.Unlock()
	t.fire()
}

// fire runs the zero-reached side effects. Called without holding mu so the
// onZero callback may re-enter the timer (e.g. start the next rest).
func (t *Timer) fire() {
	if err := t.haptics.Pulse(); err != nil && t.log != nil {
		t.log.Warn("haptic pulse failed", "error", err)
	}
	if t.onZero != nil {
		t.onZero()
	}
}
