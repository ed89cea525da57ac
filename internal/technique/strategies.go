package technique

// The FST-7 protocol is fixed at seven sets.
const fst7Sets = 7

// Myo-reps allows the activation set to land slightly under target.
const myoActivationTolerance = 2

func constWeight(w float64) func(int) float64 { return func(int) float64 { return w } }
func constInt(n int) func(int) int            { return func(int) int { return n } }
func constLabel(s string) func(int) string    { return func(int) string { return s } }

// buildPlan turns a validated Config plus initial weight into the strategy
// the generic Engine runs. Technique types without a specialized engine
// return ErrNoSpecializedEngine.
func buildPlan(cfg Config, initialWeight float64) (plan, error) {
	zero := constInt(0)
	one := constInt(1)
	w := RoundHalf(initialWeight)

	switch cfg.Type {
	case TypeDropSet:
		ladder := DropLadder(initialWeight, cfg.DropSet.Drops, cfg.DropSet.DropPercentage)
		return plan{
			steps:     len(ladder),
			weightFor: func(i int) float64 { return ladder[i] },
			targetFor: zero, // every drop is taken to failure
			minRepsFor: one,
			restAfter: zero, // no rest between drops
			holdFor:   zero,
			labelFor: func(i int) string {
				if i == 0 {
					return "TOP"
				}
				return "DROP"
			},
		}, nil

	case TypeRestPause:
		rp := cfg.RestPause
		return plan{
			steps:      rp.MiniSets,
			weightFor:  constWeight(w),
			targetFor:  zero,
			minRepsFor: one,
			restAfter:  constInt(rp.RestSeconds),
			holdFor:    zero,
			labelFor:   constLabel("RP"),
		}, nil

	case TypeMyoReps:
		m := cfg.MyoReps
		minActivation := m.ActivationReps - myoActivationTolerance
		if minActivation < 1 {
			minActivation = 1
		}
		return plan{
			steps:        m.MiniSets + 1,
			extendable:   true,
			weightFor:    constWeight(w),
			targetFor: func(i int) int {
				if i == 0 {
					return m.ActivationReps
				}
				return m.MiniSetReps
			},
			minRepsFor: func(i int) int {
				if i == 0 {
					return minActivation
				}
				return 1
			},
			restAfter: constInt(m.RestSeconds),
			holdFor:   zero,
			labelFor:  constLabel("MYO"),
			stopAfter: func(i, reps int) bool {
				// A mini-set falling under target ends the automatic loop.
				return i > 0 && reps < m.MiniSetReps
			},
		}, nil

	case TypeClusterSet:
		cl := cfg.Cluster
		return plan{
			steps:      cl.Clusters,
			weightFor:  constWeight(w),
			targetFor:  constInt(cl.RepsPerCluster),
			minRepsFor: one,
			restAfter:  constInt(cl.IntraRestSeconds),
			holdFor:    zero,
			labelFor:   constLabel("CLUSTER"),
		}, nil

	case TypeFST7:
		return plan{
			steps:      fst7Sets,
			weightFor:  constWeight(w),
			targetFor:  constInt(cfg.FST7.TargetReps),
			minRepsFor: one,
			restAfter:  constInt(cfg.FST7.RestSeconds),
			holdFor:    zero,
			labelFor:   constLabel("FST-7"),
		}, nil

	case TypeLoadedStretch:
		ls := cfg.LoadedStretch
		return plan{
			steps:        1,
			sharedWeight: true,
			weightFor:    constWeight(w),
			targetFor:    zero,
			minRepsFor:   one,
			restAfter:    zero,
			holdFor:      constInt(ls.HoldSeconds),
			labelFor:     constLabel("HOLD"),
		}, nil

	case TypeMechanicalDrop:
		md := cfg.MechanicalDrop
		return plan{
			steps:        len(md.Variations),
			sharedWeight: true,
			weightFor:    constWeight(w),
			targetFor:    constInt(md.RepsPerVariation),
			minRepsFor:   one,
			restAfter:    constInt(md.RestSeconds),
			holdFor:      zero,
			labelFor:     func(i int) string { return md.Variations[i] },
		}, nil

	case TypeTopSetBackoff:
		t := cfg.TopSetBackoff
		backoff := BackoffWeight(w, t.BackoffPercentage)
		return plan{
			steps: t.TopSets + t.BackoffSets,
			weightFor: func(i int) float64 {
				if i < t.TopSets {
					return w
				}
				return backoff
			},
			targetFor: func(i int) int {
				if i < t.TopSets {
					return t.TopSetReps
				}
				return t.BackoffReps
			},
			minRepsFor: one,
			restAfter:  zero,
			holdFor:    zero,
			labelFor: func(i int) string {
				if i < t.TopSets {
					return "TOP"
				}
				return "BACKOFF"
			},
		}, nil
	}

	return plan{}, ErrNoSpecializedEngine
}
