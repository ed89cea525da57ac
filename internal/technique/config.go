// Package technique implements execution engines for advanced resistance-training
// techniques: drop sets, rest-pause, myo-reps, cluster sets, FST-7, loaded
// stretching, mechanical drop sets and top-set/backoff work. Each engine is an
// in-memory state machine driven by user actions (log reps, confirm, skip rest)
// and countdown-timer ticks, and produces a Result on completion or cancel.
//
// The package has no storage or network surface of its own; hosts supply
// callbacks for completion, cancellation and haptic feedback.
package technique

import (
	"errors"
	"fmt"
)

// Type discriminates the technique variants of a Config.
type Type string

const (
	TypeDropSet        Type = "drop_set"
	TypeRestPause      Type = "rest_pause"
	TypeMyoReps        Type = "myo_reps"
	TypeClusterSet     Type = "cluster_set"
	TypeFST7           Type = "fst7"
	TypeLoadedStretch  Type = "loaded_stretching"
	TypeMechanicalDrop Type = "mechanical_drop_set"
	TypeTopSetBackoff  Type = "top_set_backoff"

	// Flat techniques: rendered as a plain sequence of virtual sets,
	// no specialized engine (see NewEngine and Expand).
	TypeSuperset           Type = "superset"
	TypePyramid            Type = "pyramid"
	TypeGiantSet           Type = "giant_set"
	TypeLengthenedPartials Type = "lengthened_partials"
	TypeForcedReps         Type = "forced_reps"
	TypePreExhaust         Type = "pre_exhaust"
)

// ErrInvalidConfig is wrapped by all configuration validation failures.
var ErrInvalidConfig = errors.New("invalid technique config")

// AllTypes lists every known technique type, specialized first.
var AllTypes = []Type{
	TypeDropSet, TypeRestPause, TypeMyoReps, TypeClusterSet,
	TypeFST7, TypeLoadedStretch, TypeMechanicalDrop, TypeTopSetBackoff,
	TypeSuperset, TypePyramid, TypeGiantSet,
	TypeLengthenedPartials, TypeForcedReps, TypePreExhaust,
}

// HasEngine reports whether a technique type has a specialized execution engine.
func HasEngine(t Type) bool {
	switch t {
	case TypeDropSet, TypeRestPause, TypeMyoReps, TypeClusterSet,
		TypeFST7, TypeLoadedStretch, TypeMechanicalDrop, TypeTopSetBackoff:
		return true
	}
	return false
}

// DropSetConfig parameterizes a drop set: the top set followed by Drops
// weight reductions of DropPercentage each, no rest between drops.
type DropSetConfig struct {
	Drops          int     `json:"drops"`
	DropPercentage float64 `json:"drop_percentage"`
}

// RestPauseConfig parameterizes rest-pause mini-sets following an initial
// set that is tracked outside this engine.
type RestPauseConfig struct {
	MiniSets    int `json:"mini_sets"`
	RestSeconds int `json:"rest_seconds"`
}

// MyoRepsConfig parameterizes a myo-reps sequence: one activation set, then
// up to MiniSets mini-sets with RestSeconds between them. The mini-set loop
// stops early when logged reps fall below MiniSetReps.
type MyoRepsConfig struct {
	ActivationReps int `json:"activation_reps"`
	MiniSetReps    int `json:"mini_set_reps"`
	MiniSets       int `json:"mini_sets"`
	RestSeconds    int `json:"rest_seconds"`
}

// ClusterConfig parameterizes a cluster set: Clusters groups of
// RepsPerCluster with IntraRestSeconds between groups.
type ClusterConfig struct {
	Clusters         int `json:"clusters"`
	RepsPerCluster   int `json:"reps_per_cluster"`
	IntraRestSeconds int `json:"intra_rest_seconds"`
}

// FST7Config parameterizes the fixed 7-set FST-7 protocol.
// RestSeconds must be 30 or 45.
type FST7Config struct {
	RestSeconds int `json:"rest_seconds"`
	TargetReps  int `json:"target_reps"`
}

// LoadedStretchConfig parameterizes a loaded stretch: a single timed hold at
// a user-set weight, with an optional breathing cue and a target RPE.
type LoadedStretchConfig struct {
	HoldSeconds  int    `json:"hold_seconds"`
	TargetRPE    int    `json:"target_rpe"`
	BreathingCue string `json:"breathing_cue,omitempty"`
}

// MechanicalDropConfig parameterizes a mechanical drop set: the same weight
// carried through an ordered list of successively easier exercise variations.
type MechanicalDropConfig struct {
	Variations       []string `json:"variations"`
	RepsPerVariation int      `json:"reps_per_variation"`
	RestSeconds      int      `json:"rest_seconds"`
}

// TopSetBackoffConfig parameterizes heavy top sets followed by lighter
// backoff sets at a percentage reduction from the top-set weight.
type TopSetBackoffConfig struct {
	TopSets           int     `json:"top_sets"`
	TopSetReps        int     `json:"top_set_reps"`
	BackoffSets       int     `json:"backoff_sets"`
	BackoffPercentage float64 `json:"backoff_percentage"`
	BackoffReps       int     `json:"backoff_reps"`
}

// PyramidConfig parameterizes a pyramid for virtual-set expansion only: one
// entry per step, each a percentage of the initial weight with a rep target.
type PyramidConfig struct {
	StepPercentages []float64 `json:"step_percentages"`
	StepReps        []int     `json:"step_reps"`
	RestSeconds     int       `json:"rest_seconds"`
}

// Config is the tagged union of all technique parameter sets. Exactly the
// variant matching Type must be populated. It is supplied by an upstream
// recommendation service and treated as untrusted: call Validate before use.
type Config struct {
	Type           Type                  `json:"type"`
	DropSet        *DropSetConfig        `json:"drop_set,omitempty"`
	RestPause      *RestPauseConfig      `json:"rest_pause,omitempty"`
	MyoReps        *MyoRepsConfig        `json:"myo_reps,omitempty"`
	Cluster        *ClusterConfig        `json:"cluster,omitempty"`
	FST7           *FST7Config           `json:"fst7,omitempty"`
	LoadedStretch  *LoadedStretchConfig  `json:"loaded_stretching,omitempty"`
	MechanicalDrop *MechanicalDropConfig `json:"mechanical_drop,omitempty"`
	TopSetBackoff  *TopSetBackoffConfig  `json:"top_set_backoff,omitempty"`
	Pyramid        *PyramidConfig        `json:"pyramid,omitempty"`
}

// Applied pairs a Config with the recommendation service's free-text
// rationale. The rationale is opaque to this package and passed through.
type Applied struct {
	Config    Config `json:"config"`
	Rationale string `json:"rationale,omitempty"`
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks numeric ranges for the variant selected by Type.
// All failures wrap ErrInvalidConfig.
func (c Config) Validate() error {
	switch c.Type {
	case TypeDropSet:
		if c.DropSet == nil {
			return invalidf("drop_set parameters missing")
		}
		if c.DropSet.Drops < 1 {
			return invalidf("drops must be >= 1, got %d", c.DropSet.Drops)
		}
		if c.DropSet.DropPercentage <= 0 || c.DropSet.DropPercentage >= 100 {
			return invalidf("drop_percentage must be in (0,100), got %g", c.DropSet.DropPercentage)
		}
	case TypeRestPause:
		if c.RestPause == nil {
			return invalidf("rest_pause parameters missing")
		}
		if c.RestPause.MiniSets < 1 {
			return invalidf("mini_sets must be >= 1, got %d", c.RestPause.MiniSets)
		}
		if c.RestPause.RestSeconds < 1 {
			return invalidf("rest_seconds must be >= 1, got %d", c.RestPause.RestSeconds)
		}
	case TypeMyoReps:
		if c.MyoReps == nil {
			return invalidf("myo_reps parameters missing")
		}
		m := c.MyoReps
		if m.ActivationReps < 1 {
			return invalidf("activation_reps must be >= 1, got %d", m.ActivationReps)
		}
		if m.MiniSetReps < 1 {
			return invalidf("mini_set_reps must be >= 1, got %d", m.MiniSetReps)
		}
		if m.MiniSets < 1 {
			return invalidf("mini_sets must be >= 1, got %d", m.MiniSets)
		}
		if m.RestSeconds < 1 {
			return invalidf("rest_seconds must be >= 1, got %d", m.RestSeconds)
		}
	case TypeClusterSet:
		if c.Cluster == nil {
			return invalidf("cluster parameters missing")
		}
		if c.Cluster.Clusters < 1 {
			return invalidf("clusters must be >= 1, got %d", c.Cluster.Clusters)
		}
		if c.Cluster.RepsPerCluster < 1 {
			return invalidf("reps_per_cluster must be >= 1, got %d", c.Cluster.RepsPerCluster)
		}
		if c.Cluster.IntraRestSeconds < 1 {
			return invalidf("intra_rest_seconds must be >= 1, got %d", c.Cluster.IntraRestSeconds)
		}
	case TypeFST7:
		if c.FST7 == nil {
			return invalidf("fst7 parameters missing")
		}
		if c.FST7.RestSeconds != 30 && c.FST7.RestSeconds != 45 {
			return invalidf("fst7 rest_seconds must be 30 or 45, got %d", c.FST7.RestSeconds)
		}
		if c.FST7.TargetReps < 1 {
			return invalidf("target_reps must be >= 1, got %d", c.FST7.TargetReps)
		}
	case TypeLoadedStretch:
		if c.LoadedStretch == nil {
			return invalidf("loaded_stretching parameters missing")
		}
		if c.LoadedStretch.HoldSeconds < 1 {
			return invalidf("hold_seconds must be >= 1, got %d", c.LoadedStretch.HoldSeconds)
		}
		if c.LoadedStretch.TargetRPE < 5 || c.LoadedStretch.TargetRPE > 10 {
			return invalidf("target_rpe must be in [5,10], got %d", c.LoadedStretch.TargetRPE)
		}
	case TypeMechanicalDrop:
		if c.MechanicalDrop == nil {
			return invalidf("mechanical_drop parameters missing")
		}
		if len(c.MechanicalDrop.Variations) == 0 {
			return invalidf("variations must not be empty")
		}
		for i, v := range c.MechanicalDrop.Variations {
			if v == "" {
				return invalidf("variation %d is empty", i)
			}
		}
		if c.MechanicalDrop.RepsPerVariation < 1 {
			return invalidf("reps_per_variation must be >= 1, got %d", c.MechanicalDrop.RepsPerVariation)
		}
		if c.MechanicalDrop.RestSeconds < 0 {
			return invalidf("rest_seconds must be >= 0, got %d", c.MechanicalDrop.RestSeconds)
		}
	case TypeTopSetBackoff:
		if c.TopSetBackoff == nil {
			return invalidf("top_set_backoff parameters missing")
		}
		t := c.TopSetBackoff
		if t.TopSets < 1 {
			return invalidf("top_sets must be >= 1, got %d", t.TopSets)
		}
		if t.TopSetReps < 1 {
			return invalidf("top_set_reps must be >= 1, got %d", t.TopSetReps)
		}
		if t.BackoffSets < 1 {
			return invalidf("backoff_sets must be >= 1, got %d", t.BackoffSets)
		}
		if t.BackoffPercentage <= 0 || t.BackoffPercentage >= 100 {
			return invalidf("backoff_percentage must be in (0,100), got %g", t.BackoffPercentage)
		}
		if t.BackoffReps < 1 {
			return invalidf("backoff_reps must be >= 1, got %d", t.BackoffReps)
		}
	case TypePyramid:
		if c.Pyramid != nil {
			p := c.Pyramid
			if len(p.StepPercentages) != len(p.StepReps) {
				return invalidf("pyramid step_percentages and step_reps length mismatch")
			}
			for i, pct := range p.StepPercentages {
				if pct <= 0 || pct > 100 {
					return invalidf("pyramid step %d percentage must be in (0,100], got %g", i, pct)
				}
				if p.StepReps[i] < 1 {
					return invalidf("pyramid step %d reps must be >= 1", i)
				}
			}
		}
	case TypeSuperset, TypeGiantSet, TypeLengthenedPartials, TypeForcedReps, TypePreExhaust:
		// No parameters to check.
	default:
		return invalidf("unknown technique type %q", c.Type)
	}
	return nil
}
