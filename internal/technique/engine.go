package technique

import (
	"errors"
	"log/slog"
	"sync"
)

// Phase is the execution phase of an Engine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseWork      Phase = "work"
	PhaseHold      Phase = "hold"
	PhaseRest      Phase = "rest"
	PhaseComplete  Phase = "complete"
	PhaseCancelled Phase = "cancelled"
)

var (
	// ErrNoSpecializedEngine is returned by NewEngine for technique types
	// that are rendered as a flat virtual-set sequence instead of a phase
	// machine (superset, pyramid, giant set, lengthened partials, forced
	// reps, pre-exhaust).
	ErrNoSpecializedEngine = errors.New("technique has no specialized engine")

	ErrNotStarted       = errors.New("engine not started")
	ErrAlreadyStarted   = errors.New("engine already started")
	ErrWrongPhase       = errors.New("operation not valid in current phase")
	ErrFinished         = errors.New("engine already finished")
	ErrInvalidReps      = errors.New("reps must be positive")
	ErrRepsNotLogged    = errors.New("no reps logged for current step")
	ErrRepsBelowMinimum = errors.New("logged reps below step minimum")
	ErrInvalidWeight    = errors.New("weight must be positive")
	ErrWeightLocked     = errors.New("weight is derived from configuration")
	ErrInvalidRPE       = errors.New("rpe must be between 5 and 10")
	ErrNotExtendable    = errors.New("technique does not support extra sets")
)

// plan is the per-technique strategy a generic Engine runs: step count,
// derived weights, rest/hold durations and validity/stop rules. The seven
// specialized techniques are plans over the same machine, not separate
// machines.
type plan struct {
	steps        int
	sharedWeight bool // one user-set weight applies to every step
	extendable   bool // extra sets may be added after natural completion

	weightFor  func(i int) float64 // target weight; ignored when sharedWeight
	targetFor  func(i int) int     // target reps; 0 = to failure
	minRepsFor func(i int) int     // minimum logged reps to confirm
	restAfter  func(i int) int     // rest before step i+1; not applied after the final step
	holdFor    func(i int) int     // >0: step i is a timed hold, not rep entry
	labelFor   func(i int) string
	stopAfter  func(i, reps int) bool // natural stop after step i (myo-reps)
}

// Engine drives one technique execution for one exercise-in-progress.
// State is owned exclusively by the engine and discarded after the
// OnComplete/OnCancel callback fires; only the Result outlives it.
//
// All methods are safe for concurrent use: user actions arrive on the
// host's goroutine while timer ticks arrive on the scheduler's.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	plan    plan
	timer   *Timer
	log     *slog.Logger
	haptics Haptics

	onComplete func(Result)
	onCancel   func()

	phase         Phase
	step          int // index of the active (or resting-before-next) step
	steps         int // current step budget; grows via AddSet
	weights       []float64
	reps          []int
	pending       int // logged but unconfirmed reps for the active step
	currentWeight float64
	heldSeconds   int
	actualRPE     int
	naturallyDone bool
	finished      bool
	initialWeight float64
}

// Options configures an Engine. Zero-value fields get defaults:
// TickerScheduler, NopHaptics, slog.Default.
type Options struct {
	Scheduler  Scheduler
	Haptics    Haptics
	Logger     *slog.Logger
	OnComplete func(Result)
	OnCancel   func()
}

// Start transitions Idle -> Work. The first step's input becomes active.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return ErrFinished
	}
	if e.phase != PhaseIdle {
		return ErrAlreadyStarted
	}
	e.phase = PhaseWork
	e.log.Debug("technique started", "technique", e.cfg.Type, "steps", e.steps)
	return nil
}

// LogReps records the rep count entered for the active step. It may be
// called repeatedly to correct the entry before Confirm. Zero or negative
// values are rejected, never coerced.
func (e *Engine) LogReps(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return ErrFinished
	}
	if e.phase == PhaseIdle {
		return ErrNotStarted
	}
	if e.phase != PhaseWork || e.plan.holdFor(e.step) > 0 {
		return ErrWrongPhase
	}
	if n <= 0 {
		return ErrInvalidReps
	}
	e.pending = n
	return nil
}

// CanConfirm reports whether the active step has enough logged reps for
// Confirm to succeed. Hosts use it to enable the confirm action.
func (e *Engine) CanConfirm() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.finished && e.phase == PhaseWork &&
		e.plan.holdFor(e.step) == 0 && e.pending >= e.plan.minRepsFor(e.step)
}

// Confirm commits the logged reps for the active step and advances the
// machine: into rest, into the next step, or into Complete.
func (e *Engine) Confirm() error {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return ErrFinished
	}
	if e.phase == PhaseIdle {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if e.phase != PhaseWork || e.plan.holdFor(e.step) > 0 {
		e.mu.Unlock()
		return ErrWrongPhase
	}
	if e.pending <= 0 {
		e.mu.Unlock()
		return ErrRepsNotLogged
	}
	if e.pending < e.plan.minRepsFor(e.step) {
		e.mu.Unlock()
		return ErrRepsBelowMinimum
	}

	step, reps := e.step, e.pending
	e.weights = append(e.weights, e.stepWeightLocked(step))
	e.reps = append(e.reps, reps)
	e.pending = 0

	if e.plan.stopAfter != nil && e.plan.stopAfter(step, reps) {
		e.completeLocked()
		e.mu.Unlock()
		e.pulse()
		return nil
	}
	if step >= e.steps-1 {
		e.completeLocked()
		e.mu.Unlock()
		e.pulse()
		return nil
	}

	rest := e.plan.restAfter(step)
	if rest > 0 {
		e.phase = PhaseRest
		e.timer.Start(rest)
		e.mu.Unlock()
		return nil
	}
	e.step++
	e.mu.Unlock()
	return nil
}

// SkipRest ends the active rest immediately and makes the next step's input
// active, firing the same side effects a natural zero would.
func (e *Engine) SkipRest() error {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return ErrFinished
	}
	if e.phase != PhaseRest {
		e.mu.Unlock()
		return ErrWrongPhase
	}
	e.timer.Stop()
	e.step++
	e.phase = PhaseWork
	e.mu.Unlock()
	e.pulse()
	return nil
}

// PauseTimer pauses the active rest or hold countdown. No-op otherwise.
func (e *Engine) PauseTimer() {
	e.mu.Lock()
	active := !e.finished && (e.phase == PhaseRest || e.phase == PhaseHold)
	e.mu.Unlock()
	if active {
		e.timer.Pause()
	}
}

// ResumeTimer resumes a paused rest or hold countdown. No-op otherwise.
func (e *Engine) ResumeTimer() {
	e.mu.Lock()
	active := !e.finished && (e.phase == PhaseRest || e.phase == PhaseHold)
	e.mu.Unlock()
	if active {
		e.timer.Resume()
	}
}

// SetWeight sets the shared working weight. Only techniques whose weight is
// user-supplied (loaded stretching, mechanical drop set) accept it, and only
// before the first step is committed.
func (e *Engine) SetWeight(w float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return ErrFinished
	}
	if !e.plan.sharedWeight {
		return ErrWeightLocked
	}
	if len(e.reps) > 0 || e.phase == PhaseHold {
		return ErrWeightLocked
	}
	if w <= 0 {
		return ErrInvalidWeight
	}
	e.currentWeight = w
	return nil
}

// StartHold begins the timed hold of a hold step (loaded stretching).
// The working weight must be positive.
func (e *Engine) StartHold() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return ErrFinished
	}
	if e.phase == PhaseIdle {
		return ErrNotStarted
	}
	hold := e.plan.holdFor(e.step)
	if e.phase != PhaseWork || hold <= 0 {
		return ErrWrongPhase
	}
	if e.currentWeight <= 0 {
		return ErrInvalidWeight
	}
	e.phase = PhaseHold
	e.timer.Start(hold)
	return nil
}

// SetRPE records the actual RPE after a loaded stretch completes. Metadata
// only: completion does not depend on it.
func (e *Engine) SetRPE(v int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.Type != TypeLoadedStretch {
		return ErrWrongPhase
	}
	if e.finished || e.phase != PhaseComplete {
		return ErrWrongPhase
	}
	if v < 5 || v > 10 {
		return ErrInvalidRPE
	}
	e.actualRPE = v
	return nil
}

// AddSet extends an extendable technique (myo-reps) by one step after a
// natural stop, entering the configured rest before the extra mini-set.
func (e *Engine) AddSet() error {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return ErrFinished
	}
	if !e.plan.extendable {
		e.mu.Unlock()
		return ErrNotExtendable
	}
	if e.phase != PhaseComplete {
		e.mu.Unlock()
		return ErrWrongPhase
	}
	if e.step >= e.steps-1 {
		e.steps++
	}
	e.naturallyDone = false
	e.pending = 0
	e.phase = PhaseRest
	e.timer.Start(e.plan.restAfter(e.step))
	e.mu.Unlock()
	return nil
}

// Finish emits the Result through OnComplete and makes the engine terminal.
// Calling it before the completion criteria are met is the explicit
// force-complete path: the tracked arrays are truncated to the logged steps
// and CompletedFully is false.
func (e *Engine) Finish(notes string) (Result, error) {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return Result{}, ErrFinished
	}
	e.timer.Stop()
	e.finished = true
	e.phase = PhaseComplete
	res := newResult(e.cfg, e.initialWeight, e.weights, e.reps,
		e.heldSeconds, e.actualRPE, e.naturallyDone, notes)
	cb := e.onComplete
	e.mu.Unlock()

	e.pulse()
	if cb != nil {
		cb(res)
	}
	return res, nil
}

// Cancel abandons the execution: the timer is stopped and released, the
// engine becomes terminal and OnCancel fires. Logged data is discarded by
// this path; callers that want a partial result call Finish instead.
func (e *Engine) Cancel() {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	e.timer.Stop()
	e.finished = true
	e.phase = PhaseCancelled
	cb := e.onCancel
	e.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// State is a host-facing snapshot of the engine.
type State struct {
	Phase         Phase   `json:"phase"`
	Step          int     `json:"step"`
	Steps         int     `json:"steps"`
	Label         string  `json:"label"`
	TargetWeight  float64 `json:"target_weight"`
	TargetReps    int     `json:"target_reps"`
	MinReps       int     `json:"min_reps"`
	HoldSeconds   int     `json:"hold_seconds,omitempty"`
	PendingReps   int     `json:"pending_reps"`
	RestRemaining int     `json:"rest_remaining"`
	LoggedWeights []float64 `json:"logged_weights"`
	LoggedReps    []int     `json:"logged_reps"`
	NaturallyDone bool      `json:"naturally_done"`
}

// State returns a snapshot of the current execution state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := State{
		Phase:         e.phase,
		Step:          e.step,
		Steps:         e.steps,
		PendingReps:   e.pending,
		LoggedWeights: append([]float64(nil), e.weights...),
		LoggedReps:    append([]int(nil), e.reps...),
		NaturallyDone: e.naturallyDone,
	}
	if e.step < e.steps {
		s.Label = e.plan.labelFor(e.step)
		s.TargetWeight = e.stepWeightLocked(e.step)
		s.TargetReps = e.plan.targetFor(e.step)
		s.MinReps = e.plan.minRepsFor(e.step)
		s.HoldSeconds = e.plan.holdFor(e.step)
	}
	if e.phase == PhaseRest || e.phase == PhaseHold {
		s.RestRemaining = e.timer.Remaining()
	}
	return s
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) stepWeightLocked(i int) float64 {
	if e.plan.sharedWeight {
		return e.currentWeight
	}
	return e.plan.weightFor(i)
}

// completeLocked marks the machine's own completion criteria as met. The
// result is not emitted until the host calls Finish, leaving room for the
// add-mini-set affordance on extendable techniques.
func (e *Engine) completeLocked() {
	e.timer.Stop()
	e.phase = PhaseComplete
	e.naturallyDone = true
	e.log.Debug("technique complete", "technique", e.cfg.Type, "steps_logged", len(e.reps))
}

// handleTimerZero is the timer's on-zero callback: rest ends advance the
// step, hold ends complete the hold step.
func (e *Engine) handleTimerZero() {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	switch e.phase {
	case PhaseRest:
		e.step++
		e.phase = PhaseWork
	case PhaseHold:
		e.heldSeconds = e.plan.holdFor(e.step)
		e.weights = append(e.weights, e.currentWeight)
		e.reps = append(e.reps, e.heldSeconds)
		e.completeLocked()
	}
	e.mu.Unlock()
}

// pulse fires a best-effort haptic for user-visible transitions triggered
// directly by user actions (timer zeros pulse inside the timer itself).
func (e *Engine) pulse() {
	if err := e.haptics.Pulse(); err != nil {
		e.log.Warn("haptic pulse failed", "error", err)
	}
}
