package technique

import (
	"errors"
	"testing"
)

func newTestEngine(t *testing.T, cfg Config, weight float64) (*Engine, *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler()
	e, err := NewEngine(cfg, weight, Options{Scheduler: sched, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, sched
}

func mustStart(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func logAndConfirm(t *testing.T, e *Engine, reps int) {
	t.Helper()
	if err := e.LogReps(reps); err != nil {
		t.Fatalf("LogReps(%d): %v", reps, err)
	}
	if err := e.Confirm(); err != nil {
		t.Fatalf("Confirm after %d reps: %v", reps, err)
	}
}

// TestDropSetFullExecution walks the canonical drop-set scenario: 2 drops at
// 20% from 100kg, every step logged. The ladder is [100, 80, 64], no rest
// between drops, and the result reports full completion.
func TestDropSetFullExecution(t *testing.T) {
	cfg := Config{Type: TypeDropSet, DropSet: &DropSetConfig{Drops: 2, DropPercentage: 20}}
	e, sched := newTestEngine(t, cfg, 100)
	mustStart(t, e)

	for _, reps := range []int{10, 8, 6} {
		if e.Phase() != PhaseWork {
			t.Fatalf("phase = %s, want work", e.Phase())
		}
		logAndConfirm(t, e, reps)
	}
	if e.Phase() != PhaseComplete {
		t.Fatalf("phase = %s, want complete", e.Phase())
	}
	if sched.Active() != 0 {
		t.Errorf("timer callbacks still scheduled: %d", sched.Active())
	}

	var got Result
	e.onComplete = func(r Result) { got = r }
	res, err := e.Finish("solid session")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true")
	}
	wantWeights := []float64{100, 80, 64}
	for i, w := range wantWeights {
		if res.DropWeights[i] != w {
			t.Errorf("DropWeights[%d] = %g, want %g", i, res.DropWeights[i], w)
		}
	}
	wantReps := []int{10, 8, 6}
	for i, n := range wantReps {
		if res.DropReps[i] != n {
			t.Errorf("DropReps[%d] = %d, want %d", i, res.DropReps[i], n)
		}
	}
	if res.TotalReps != 24 {
		t.Errorf("TotalReps = %d, want 24", res.TotalReps)
	}
	if got.Notes != "solid session" {
		t.Errorf("OnComplete result notes = %q", got.Notes)
	}
}

// TestConfirmRequiresLoggedReps verifies the shared edge-case policy: the
// advance action is rejected until positive reps are logged, and zero or
// negative entries are never coerced.
func TestConfirmRequiresLoggedReps(t *testing.T) {
	cfg := Config{Type: TypeDropSet, DropSet: &DropSetConfig{Drops: 1, DropPercentage: 10}}
	e, _ := newTestEngine(t, cfg, 60)

	if err := e.LogReps(5); !errors.Is(err, ErrNotStarted) {
		t.Errorf("LogReps before Start = %v, want ErrNotStarted", err)
	}
	mustStart(t, e)

	if err := e.Confirm(); !errors.Is(err, ErrRepsNotLogged) {
		t.Errorf("Confirm without reps = %v, want ErrRepsNotLogged", err)
	}
	if err := e.LogReps(0); !errors.Is(err, ErrInvalidReps) {
		t.Errorf("LogReps(0) = %v, want ErrInvalidReps", err)
	}
	if err := e.LogReps(-3); !errors.Is(err, ErrInvalidReps) {
		t.Errorf("LogReps(-3) = %v, want ErrInvalidReps", err)
	}
	if e.CanConfirm() {
		t.Error("CanConfirm = true with no valid reps")
	}
	if err := e.LogReps(8); err != nil {
		t.Fatalf("LogReps(8): %v", err)
	}
	if !e.CanConfirm() {
		t.Error("CanConfirm = false after valid reps")
	}
}

// TestRestPauseScenario verifies 3 mini-sets at 15s rest:
// logging [8,5,3] with no skips yields full completion and 16 total reps.
// The final mini-set must not enter a rest phase.
func TestRestPauseScenario(t *testing.T) {
	cfg := Config{Type: TypeRestPause, RestPause: &RestPauseConfig{MiniSets: 3, RestSeconds: 15}}
	e, sched := newTestEngine(t, cfg, 80)
	mustStart(t, e)

	logAndConfirm(t, e, 8)
	if e.Phase() != PhaseRest {
		t.Fatalf("phase after mini-set 1 = %s, want rest", e.Phase())
	}
	if got := e.State().RestRemaining; got != 15 {
		t.Errorf("RestRemaining = %d, want 15", got)
	}
	sched.Tick(15)
	if e.Phase() != PhaseWork {
		t.Fatalf("phase after rest = %s, want work", e.Phase())
	}

	logAndConfirm(t, e, 5)
	sched.Tick(15)
	logAndConfirm(t, e, 3)

	if e.Phase() != PhaseComplete {
		t.Fatalf("phase after last mini-set = %s, want complete (no trailing rest)", e.Phase())
	}
	res, err := e.Finish("")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true")
	}
	if res.TotalReps != 16 {
		t.Errorf("TotalReps = %d, want 16", res.TotalReps)
	}
	if len(res.MiniSetReps) != 3 {
		t.Errorf("len(MiniSetReps) = %d, want 3", len(res.MiniSetReps))
	}
}

// TestSkipRestAdvancesImmediately verifies that skipping a rest makes the
// next step's input active without waiting out the countdown.
func TestSkipRestAdvancesImmediately(t *testing.T) {
	cfg := Config{Type: TypeClusterSet, Cluster: &ClusterConfig{Clusters: 3, RepsPerCluster: 3, IntraRestSeconds: 20}}
	e, sched := newTestEngine(t, cfg, 120)
	mustStart(t, e)

	logAndConfirm(t, e, 3)
	if e.Phase() != PhaseRest {
		t.Fatalf("phase = %s, want rest", e.Phase())
	}
	if err := e.SkipRest(); err != nil {
		t.Fatalf("SkipRest: %v", err)
	}
	if e.Phase() != PhaseWork {
		t.Fatalf("phase after skip = %s, want work", e.Phase())
	}
	if got := e.State().Step; got != 1 {
		t.Errorf("step = %d, want 1", got)
	}
	if sched.Active() != 0 {
		t.Errorf("skipped rest left %d scheduled callbacks", sched.Active())
	}
	if err := e.SkipRest(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("SkipRest outside rest = %v, want ErrWrongPhase", err)
	}
}

// TestMyoRepsActivationTolerance verifies the activation set accepts reps
// down to target-2 and rejects anything below that band.
func TestMyoRepsActivationTolerance(t *testing.T) {
	cfg := Config{Type: TypeMyoReps, MyoReps: &MyoRepsConfig{ActivationReps: 12, MiniSetReps: 5, MiniSets: 3, RestSeconds: 10}}
	e, _ := newTestEngine(t, cfg, 30)
	mustStart(t, e)

	if err := e.LogReps(9); err != nil {
		t.Fatalf("LogReps(9): %v", err)
	}
	if err := e.Confirm(); !errors.Is(err, ErrRepsBelowMinimum) {
		t.Errorf("Confirm at 9 reps = %v, want ErrRepsBelowMinimum (min 10)", err)
	}
	if err := e.LogReps(10); err != nil {
		t.Fatalf("LogReps(10): %v", err)
	}
	if err := e.Confirm(); err != nil {
		t.Errorf("Confirm at 10 reps = %v, want nil", err)
	}
}

// TestMyoRepsStopCondition verifies the mini-set loop ends automatically
// when logged reps fall below target, and that an explicit AddSet still
// extends the sequence afterwards.
func TestMyoRepsStopCondition(t *testing.T) {
	cfg := Config{Type: TypeMyoReps, MyoReps: &MyoRepsConfig{ActivationReps: 12, MiniSetReps: 5, MiniSets: 4, RestSeconds: 10}}
	e, sched := newTestEngine(t, cfg, 30)
	mustStart(t, e)

	logAndConfirm(t, e, 12) // activation
	sched.Tick(10)
	logAndConfirm(t, e, 5) // mini-set 1, at target
	sched.Tick(10)
	logAndConfirm(t, e, 4) // mini-set 2, below target: natural stop

	if e.Phase() != PhaseComplete {
		t.Fatalf("phase = %s, want complete after sub-target mini-set", e.Phase())
	}

	// Extend past the natural stop.
	if err := e.AddSet(); err != nil {
		t.Fatalf("AddSet: %v", err)
	}
	if e.Phase() != PhaseRest {
		t.Fatalf("phase after AddSet = %s, want rest", e.Phase())
	}
	sched.Tick(10)
	logAndConfirm(t, e, 3)
	if e.Phase() != PhaseComplete {
		t.Fatalf("phase = %s, want complete", e.Phase())
	}

	res, err := e.Finish("")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.ActivationReps != 12 {
		t.Errorf("ActivationReps = %d, want 12", res.ActivationReps)
	}
	want := []int{5, 4, 3}
	if len(res.MiniSetReps) != len(want) {
		t.Fatalf("MiniSetReps = %v, want %v", res.MiniSetReps, want)
	}
	for i, n := range want {
		if res.MiniSetReps[i] != n {
			t.Errorf("MiniSetReps[%d] = %d, want %d", i, res.MiniSetReps[i], n)
		}
	}
	if res.TotalReps != 24 {
		t.Errorf("TotalReps = %d, want 24 (activation + mini-sets)", res.TotalReps)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true for a natural stop")
	}
}

// TestAddSetOnlyForExtendableTechniques verifies non-extendable techniques
// reject the affordance.
func TestAddSetOnlyForExtendableTechniques(t *testing.T) {
	cfg := Config{Type: TypeFST7, FST7: &FST7Config{RestSeconds: 30, TargetReps: 10}}
	e, _ := newTestEngine(t, cfg, 50)
	mustStart(t, e)
	if err := e.AddSet(); !errors.Is(err, ErrNotExtendable) {
		t.Errorf("AddSet on FST-7 = %v, want ErrNotExtendable", err)
	}
}

// TestFST7ForcedCompleteTruncates verifies the truncation policy: forcing
// completion after 5 of 7 sets yields arrays of the 5 logged sets and
// CompletedFully false.
func TestFST7ForcedCompleteTruncates(t *testing.T) {
	cfg := Config{Type: TypeFST7, FST7: &FST7Config{RestSeconds: 30, TargetReps: 12}}
	e, sched := newTestEngine(t, cfg, 40)
	mustStart(t, e)

	for i := 0; i < 5; i++ {
		logAndConfirm(t, e, 12-i)
		if e.Phase() == PhaseRest {
			sched.Tick(30)
		}
	}

	res, err := e.Finish("cut short")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.CompletedFully {
		t.Error("CompletedFully = true, want false for 5 of 7 sets")
	}
	if len(res.MiniSetReps) != 5 {
		t.Errorf("len(MiniSetReps) = %d, want 5 (truncated, not padded)", len(res.MiniSetReps))
	}
	if sched.Active() != 0 {
		t.Errorf("forced completion left %d scheduled callbacks", sched.Active())
	}
}

// TestLoadedStretchHold verifies the ready -> holding -> completed flow:
// pause and resume keep elapsed time, zero auto-completes, and RPE is
// metadata recorded after completion from the allowed band.
func TestLoadedStretchHold(t *testing.T) {
	cfg := Config{Type: TypeLoadedStretch, LoadedStretch: &LoadedStretchConfig{HoldSeconds: 30, TargetRPE: 8}}
	e, sched := newTestEngine(t, cfg, 20)
	mustStart(t, e)

	if err := e.SetWeight(25); err != nil {
		t.Fatalf("SetWeight: %v", err)
	}
	if err := e.StartHold(); err != nil {
		t.Fatalf("StartHold: %v", err)
	}
	if e.Phase() != PhaseHold {
		t.Fatalf("phase = %s, want hold", e.Phase())
	}

	sched.Tick(10)
	e.PauseTimer()
	sched.Tick(40)
	if got := e.State().RestRemaining; got != 20 {
		t.Errorf("remaining while paused = %d, want 20", got)
	}
	e.ResumeTimer()
	sched.Tick(20)

	if e.Phase() != PhaseComplete {
		t.Fatalf("phase = %s, want complete at hold zero", e.Phase())
	}
	if err := e.SetRPE(11); !errors.Is(err, ErrInvalidRPE) {
		t.Errorf("SetRPE(11) = %v, want ErrInvalidRPE", err)
	}
	if err := e.SetRPE(7); err != nil {
		t.Fatalf("SetRPE(7): %v", err)
	}

	res, err := e.Finish("")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true once the hold reaches zero")
	}
	if res.HeldSeconds != 30 {
		t.Errorf("HeldSeconds = %d, want 30", res.HeldSeconds)
	}
	if res.ActualRPE != 7 {
		t.Errorf("ActualRPE = %d, want 7", res.ActualRPE)
	}
	if len(res.SetWeights) != 1 || res.SetWeights[0] != 25 {
		t.Errorf("SetWeights = %v, want [25]", res.SetWeights)
	}
}

// TestLoadedStretchRequiresPositiveWeight verifies the hold cannot start
// until a positive weight is in place.
func TestLoadedStretchRequiresPositiveWeight(t *testing.T) {
	cfg := Config{Type: TypeLoadedStretch, LoadedStretch: &LoadedStretchConfig{HoldSeconds: 20, TargetRPE: 8}}
	e, _ := newTestEngine(t, cfg, 15)
	mustStart(t, e)
	if err := e.SetWeight(0); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("SetWeight(0) = %v, want ErrInvalidWeight", err)
	}
	// Initial weight was positive, so the hold may start at that load.
	if err := e.StartHold(); err != nil {
		t.Errorf("StartHold at initial weight = %v, want nil", err)
	}
}

// TestMechanicalDropSharedWeight verifies one weight carries through every
// variation and is locked once the first variation is committed.
func TestMechanicalDropSharedWeight(t *testing.T) {
	cfg := Config{Type: TypeMechanicalDrop, MechanicalDrop: &MechanicalDropConfig{
		Variations: []string{"incline curl", "seated curl", "standing curl"}, RepsPerVariation: 8,
	}}
	e, _ := newTestEngine(t, cfg, 12)
	mustStart(t, e)

	if err := e.SetWeight(14); err != nil {
		t.Fatalf("SetWeight: %v", err)
	}
	if got := e.State().Label; got != "incline curl" {
		t.Errorf("step label = %q, want variation name", got)
	}
	logAndConfirm(t, e, 8)
	if err := e.SetWeight(10); !errors.Is(err, ErrWeightLocked) {
		t.Errorf("SetWeight after first variation = %v, want ErrWeightLocked", err)
	}
	// No rest configured: next variation is active immediately.
	if e.Phase() != PhaseWork {
		t.Fatalf("phase = %s, want work", e.Phase())
	}
	logAndConfirm(t, e, 7)
	logAndConfirm(t, e, 6)

	res, err := e.Finish("")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true")
	}
	for i, w := range res.DropWeights {
		if w != 14 {
			t.Errorf("DropWeights[%d] = %g, want shared 14", i, w)
		}
	}
}

// TestMechanicalDropEmptyVariationsRefused verifies the configuration error
// contract: an empty variation list must refuse to start, not run an empty
// phase list.
func TestMechanicalDropEmptyVariationsRefused(t *testing.T) {
	cfg := Config{Type: TypeMechanicalDrop, MechanicalDrop: &MechanicalDropConfig{RepsPerVariation: 8}}
	_, err := NewEngine(cfg, 20, Options{Scheduler: NewManualScheduler(), Logger: discardLogger()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewEngine = %v, want ErrInvalidConfig", err)
	}
}

// TestTopSetBackoffScenario verifies one 5-rep top set at
// 100 then two 8-rep backoff sets at 85, strictly in order.
func TestTopSetBackoffScenario(t *testing.T) {
	cfg := Config{Type: TypeTopSetBackoff, TopSetBackoff: &TopSetBackoffConfig{
		TopSets: 1, TopSetReps: 5, BackoffSets: 2, BackoffPercentage: 15, BackoffReps: 8,
	}}
	e, _ := newTestEngine(t, cfg, 100)
	mustStart(t, e)

	if s := e.State(); s.Label != "TOP" || s.TargetWeight != 100 || s.TargetReps != 5 {
		t.Errorf("first step = %+v, want TOP 100x5", s)
	}
	logAndConfirm(t, e, 5)
	if s := e.State(); s.Label != "BACKOFF" || s.TargetWeight != 85 || s.TargetReps != 8 {
		t.Errorf("second step = %+v, want BACKOFF 85x8", s)
	}
	logAndConfirm(t, e, 8)
	logAndConfirm(t, e, 8)

	res, err := e.Finish("")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true")
	}
	want := []float64{100, 85, 85}
	for i, w := range want {
		if res.PyramidWeights[i] != w {
			t.Errorf("PyramidWeights[%d] = %g, want %g", i, res.PyramidWeights[i], w)
		}
	}
}

// TestCancelReleasesTimer verifies cancellation mid-rest: the timer resource
// is released, no callback fires afterwards, OnCancel is invoked and the
// engine is terminal.
func TestCancelReleasesTimer(t *testing.T) {
	cfg := Config{Type: TypeRestPause, RestPause: &RestPauseConfig{MiniSets: 3, RestSeconds: 15}}
	sched := NewManualScheduler()
	cancelled := false
	e, err := NewEngine(cfg, 60, Options{
		Scheduler: sched,
		Logger:    discardLogger(),
		OnCancel:  func() { cancelled = true },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	mustStart(t, e)
	logAndConfirm(t, e, 8)
	if e.Phase() != PhaseRest {
		t.Fatalf("phase = %s, want rest", e.Phase())
	}

	e.Cancel()
	if !cancelled {
		t.Error("OnCancel not invoked")
	}
	if sched.Active() != 0 {
		t.Errorf("cancel left %d scheduled callbacks", sched.Active())
	}
	sched.Tick(30)
	if e.Phase() != PhaseCancelled {
		t.Errorf("phase = %s, want cancelled", e.Phase())
	}
	if err := e.LogReps(5); !errors.Is(err, ErrFinished) {
		t.Errorf("LogReps after cancel = %v, want ErrFinished", err)
	}
	if _, err := e.Finish(""); !errors.Is(err, ErrFinished) {
		t.Errorf("Finish after cancel = %v, want ErrFinished", err)
	}
	// Cancel is idempotent.
	e.Cancel()
}

// TestForceCompleteWithNothingLogged verifies forcing completion before any
// step yields empty arrays and CompletedFully false.
func TestForceCompleteWithNothingLogged(t *testing.T) {
	cfg := Config{Type: TypeClusterSet, Cluster: &ClusterConfig{Clusters: 4, RepsPerCluster: 2, IntraRestSeconds: 15}}
	e, _ := newTestEngine(t, cfg, 140)
	mustStart(t, e)

	res, err := e.Finish("")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.CompletedFully {
		t.Error("CompletedFully = true, want false")
	}
	if len(res.ClusterReps) != 0 || res.TotalReps != 0 {
		t.Errorf("ClusterReps = %v TotalReps = %d, want empty", res.ClusterReps, res.TotalReps)
	}
}

// TestPartialCompletedFullyProperty verifies the invariant that any engine
// with some but not all steps logged reports CompletedFully false on forced
// completion, across specialized techniques.
func TestPartialCompletedFullyProperty(t *testing.T) {
	configs := []Config{
		{Type: TypeDropSet, DropSet: &DropSetConfig{Drops: 2, DropPercentage: 20}},
		{Type: TypeRestPause, RestPause: &RestPauseConfig{MiniSets: 3, RestSeconds: 15}},
		{Type: TypeClusterSet, Cluster: &ClusterConfig{Clusters: 3, RepsPerCluster: 3, IntraRestSeconds: 20}},
		{Type: TypeFST7, FST7: &FST7Config{RestSeconds: 30, TargetReps: 10}},
		{Type: TypeMechanicalDrop, MechanicalDrop: &MechanicalDropConfig{Variations: []string{"a", "b", "c"}, RepsPerVariation: 8}},
		{Type: TypeTopSetBackoff, TopSetBackoff: &TopSetBackoffConfig{TopSets: 1, TopSetReps: 5, BackoffSets: 2, BackoffPercentage: 15, BackoffReps: 8}},
	}
	for _, cfg := range configs {
		t.Run(string(cfg.Type), func(t *testing.T) {
			e, _ := newTestEngine(t, cfg, 100)
			mustStart(t, e)
			logAndConfirm(t, e, 5) // exactly one of several steps

			res, err := e.Finish("")
			if err != nil {
				t.Fatalf("Finish: %v", err)
			}
			if res.CompletedFully {
				t.Error("CompletedFully = true with partial log, want false")
			}
			if len(res.SetReps) != 1 {
				t.Errorf("len(SetReps) = %d, want 1 (truncation policy)", len(res.SetReps))
			}
		})
	}
}

// TestNewEngineDispatch verifies the dispatcher boundary: flat techniques
// get no engine, and a non-positive initial weight is rejected up front.
func TestNewEngineDispatch(t *testing.T) {
	for _, typ := range []Type{TypeSuperset, TypePyramid, TypeGiantSet, TypeLengthenedPartials, TypeForcedReps, TypePreExhaust} {
		_, err := NewEngine(Config{Type: typ}, 50, Options{Logger: discardLogger()})
		if !errors.Is(err, ErrNoSpecializedEngine) {
			t.Errorf("NewEngine(%s) = %v, want ErrNoSpecializedEngine", typ, err)
		}
	}
	cfg := Config{Type: TypeDropSet, DropSet: &DropSetConfig{Drops: 2, DropPercentage: 20}}
	if _, err := NewEngine(cfg, 0, Options{Logger: discardLogger()}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero initial weight = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewEngine(cfg, -20, Options{Logger: discardLogger()}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative initial weight = %v, want ErrInvalidConfig", err)
	}
}

// TestHapticsFailureNeverAborts verifies a failing vibration host degrades
// gracefully: every transition still works.
func TestHapticsFailureNeverAborts(t *testing.T) {
	cfg := Config{Type: TypeRestPause, RestPause: &RestPauseConfig{MiniSets: 2, RestSeconds: 5}}
	sched := NewManualScheduler()
	h := &recordingHaptics{err: errors.New("no vibration motor")}
	e, err := NewEngine(cfg, 60, Options{Scheduler: sched, Haptics: h, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	mustStart(t, e)
	logAndConfirm(t, e, 8)
	sched.Tick(5)
	logAndConfirm(t, e, 5)

	res, finErr := e.Finish("")
	if finErr != nil {
		t.Fatalf("Finish: %v", finErr)
	}
	if !res.CompletedFully {
		t.Error("CompletedFully = false, want true despite haptics errors")
	}
	if h.pulses == 0 {
		t.Error("expected haptic pulses to be attempted")
	}
}
