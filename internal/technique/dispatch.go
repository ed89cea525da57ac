package technique

import "log/slog"

// NewEngine validates the configuration and initial weight, then builds the
// engine variant for the technique. Configuration errors are fatal to
// starting: they are returned here, before any state exists. Technique types
// that need no phase machine return ErrNoSpecializedEngine; callers fall
// back to the plain set logger over Expand.
func NewEngine(cfg Config, initialWeight float64, opts Options) (*Engine, error) {
	if initialWeight <= 0 {
		return nil, invalidf("initial weight must be positive, got %g", initialWeight)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := buildPlan(cfg, initialWeight)
	if err != nil {
		return nil, err
	}

	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Haptics == nil {
		opts.Haptics = NopHaptics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		cfg:           cfg,
		plan:          p,
		log:           opts.Logger,
		haptics:       opts.Haptics,
		onComplete:    opts.OnComplete,
		onCancel:      opts.OnCancel,
		phase:         PhaseIdle,
		steps:         p.steps,
		currentWeight: RoundHalf(initialWeight),
		initialWeight: initialWeight,
	}
	e.timer = NewTimer(opts.Scheduler, opts.Haptics, opts.Logger, e.handleTimerZero)
	return e, nil
}
