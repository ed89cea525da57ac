package technique

import "fmt"

// VirtualSet is the normalized single-set form of one step of a technique,
// used by plain set-logging UIs to render any technique as a flat sequence.
type VirtualSet struct {
	Weight      float64 `json:"weight"`
	TargetReps  int     `json:"target_reps"`
	RestSeconds int     `json:"rest_seconds"`
	HoldSeconds int     `json:"hold_seconds,omitempty"`
	Label       string  `json:"label"`
	Exercise    string  `json:"exercise,omitempty"`
}

// Expand converts a validated technique configuration into its ordered
// virtual-set sequence. It covers every technique type, including the flat
// ones that have no specialized engine. RestSeconds is the rest that follows
// the set; the final set of a sequence always carries zero rest.
func Expand(cfg Config, initialWeight float64) ([]VirtualSet, error) {
	if initialWeight <= 0 {
		return nil, invalidf("initial weight must be positive, got %g", initialWeight)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := RoundHalf(initialWeight)

	switch cfg.Type {
	case TypeDropSet:
		ladder := DropLadder(initialWeight, cfg.DropSet.Drops, cfg.DropSet.DropPercentage)
		sets := make([]VirtualSet, len(ladder))
		for i, lw := range ladder {
			label := "DROP"
			if i == 0 {
				label = "TOP"
			}
			// No rest between drops.
			sets[i] = VirtualSet{Weight: lw, Label: label}
		}
		return sets, nil

	case TypeRestPause:
		sets := make([]VirtualSet, cfg.RestPause.MiniSets)
		for i := range sets {
			sets[i] = VirtualSet{
				Weight:      w,
				Label:       fmt.Sprintf("+%ds", cfg.RestPause.RestSeconds),
				RestSeconds: restUnlessLast(cfg.RestPause.RestSeconds, i, len(sets)),
			}
		}
		return sets, nil

	case TypeMyoReps:
		m := cfg.MyoReps
		sets := make([]VirtualSet, m.MiniSets+1)
		sets[0] = VirtualSet{Weight: w, TargetReps: m.ActivationReps, RestSeconds: m.RestSeconds, Label: "MYO"}
		for i := 1; i < len(sets); i++ {
			sets[i] = VirtualSet{
				Weight:      w,
				TargetReps:  m.MiniSetReps,
				RestSeconds: restUnlessLast(m.RestSeconds, i, len(sets)),
				Label:       "MYO",
			}
		}
		return sets, nil

	case TypeClusterSet:
		cl := cfg.Cluster
		sets := make([]VirtualSet, cl.Clusters)
		for i := range sets {
			sets[i] = VirtualSet{
				Weight:      w,
				TargetReps:  cl.RepsPerCluster,
				RestSeconds: restUnlessLast(cl.IntraRestSeconds, i, len(sets)),
				Label:       "CLUSTER",
			}
		}
		return sets, nil

	case TypeFST7:
		sets := make([]VirtualSet, fst7Sets)
		for i := range sets {
			sets[i] = VirtualSet{
				Weight:      w,
				TargetReps:  cfg.FST7.TargetReps,
				RestSeconds: restUnlessLast(cfg.FST7.RestSeconds, i, len(sets)),
				Label:       "FST-7",
			}
		}
		return sets, nil

	case TypeLoadedStretch:
		return []VirtualSet{{
			Weight:      w,
			HoldSeconds: cfg.LoadedStretch.HoldSeconds,
			Label:       "HOLD",
		}}, nil

	case TypeMechanicalDrop:
		md := cfg.MechanicalDrop
		sets := make([]VirtualSet, len(md.Variations))
		for i, name := range md.Variations {
			sets[i] = VirtualSet{
				Weight:      w,
				TargetReps:  md.RepsPerVariation,
				RestSeconds: restUnlessLast(md.RestSeconds, i, len(sets)),
				Label:       "MECH",
				Exercise:    name,
			}
		}
		return sets, nil

	case TypeTopSetBackoff:
		t := cfg.TopSetBackoff
		backoff := BackoffWeight(w, t.BackoffPercentage)
		sets := make([]VirtualSet, 0, t.TopSets+t.BackoffSets)
		for i := 0; i < t.TopSets; i++ {
			sets = append(sets, VirtualSet{Weight: w, TargetReps: t.TopSetReps, Label: "TOP"})
		}
		for i := 0; i < t.BackoffSets; i++ {
			sets = append(sets, VirtualSet{Weight: backoff, TargetReps: t.BackoffReps, Label: "BACKOFF"})
		}
		return sets, nil

	case TypePyramid:
		if cfg.Pyramid == nil || len(cfg.Pyramid.StepPercentages) == 0 {
			return []VirtualSet{{Weight: w, Label: "PYR"}}, nil
		}
		p := cfg.Pyramid
		sets := make([]VirtualSet, len(p.StepPercentages))
		for i, pct := range p.StepPercentages {
			sets[i] = VirtualSet{
				Weight:      RoundHalf(w * pct / 100),
				TargetReps:  p.StepReps[i],
				RestSeconds: restUnlessLast(p.RestSeconds, i, len(sets)),
				Label:       "PYR",
			}
		}
		return sets, nil

	case TypeSuperset:
		return []VirtualSet{{Weight: w, Label: "SS"}}, nil
	case TypeGiantSet:
		return []VirtualSet{{Weight: w, Label: "GIANT"}}, nil
	case TypeLengthenedPartials:
		return []VirtualSet{{Weight: w, Label: "LP"}}, nil
	case TypeForcedReps:
		return []VirtualSet{{Weight: w, Label: "FORCED"}}, nil
	case TypePreExhaust:
		return []VirtualSet{{Weight: w, Label: "PRE"}}, nil
	}

	return nil, invalidf("unknown technique type %q", cfg.Type)
}

func restUnlessLast(rest, i, n int) int {
	if i == n-1 {
		return 0
	}
	return rest
}
