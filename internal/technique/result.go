package technique

// Result is the normalized outcome of one technique execution, immutable
// once constructed. SetWeights/SetReps are the canonical per-step arrays in
// execution order; the technique-named views alias the same data in the
// shape downstream consumers expect. On a forced (partial) completion the
// arrays are truncated to the steps actually logged, never zero-padded,
// and CompletedFully is false.
type Result struct {
	Technique     Type    `json:"technique"`
	Config        Config  `json:"config"`
	InitialWeight float64 `json:"initial_weight"`

	SetWeights []float64 `json:"set_weights"`
	SetReps    []int     `json:"set_reps"`

	DropWeights    []float64 `json:"drop_weights,omitempty"`
	DropReps       []int     `json:"drop_reps,omitempty"`
	ActivationReps int       `json:"activation_reps,omitempty"`
	MiniSetReps    []int     `json:"mini_set_reps,omitempty"`
	ClusterReps    []int     `json:"cluster_reps,omitempty"`
	PyramidWeights []float64 `json:"pyramid_weights,omitempty"`
	PyramidReps    []int     `json:"pyramid_reps,omitempty"`

	HeldSeconds int `json:"held_seconds,omitempty"`
	ActualRPE   int `json:"actual_rpe,omitempty"`

	TotalReps      int    `json:"total_reps"`
	CompletedFully bool   `json:"completed_fully"`
	Notes          string `json:"notes,omitempty"`
}

// newResult packages an engine's tracked arrays into the shared result
// shape. weights and reps are copied; the named views are derived per
// technique family.
func newResult(cfg Config, initialWeight float64, weights []float64, reps []int,
	heldSeconds, actualRPE int, completedFully bool, notes string) Result {

	r := Result{
		Technique:      cfg.Type,
		Config:         cfg,
		InitialWeight:  initialWeight,
		SetWeights:     append([]float64(nil), weights...),
		SetReps:        append([]int(nil), reps...),
		HeldSeconds:    heldSeconds,
		ActualRPE:      actualRPE,
		CompletedFully: completedFully,
		Notes:          notes,
	}
	for _, n := range reps {
		r.TotalReps += n
	}

	switch cfg.Type {
	case TypeDropSet, TypeMechanicalDrop:
		r.DropWeights = r.SetWeights
		r.DropReps = r.SetReps
	case TypeRestPause, TypeFST7:
		r.MiniSetReps = r.SetReps
	case TypeMyoReps:
		if len(r.SetReps) > 0 {
			r.ActivationReps = r.SetReps[0]
			r.MiniSetReps = r.SetReps[1:]
		}
	case TypeClusterSet:
		r.ClusterReps = r.SetReps
	case TypeTopSetBackoff:
		r.PyramidWeights = r.SetWeights
		r.PyramidReps = r.SetReps
	}
	return r
}
