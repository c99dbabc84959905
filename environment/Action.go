package environment

import "gonum.org/v1/gonum/mat"

// Action is one control-step command. A nil *Action is passive: no
// targets are queued and the simulation advances under the previous
// drive state.
//
// Exactly one of Values and PerAgent should be set. Values drives the
// single agent; PerAgent routes per-agent batches by robot uid in
// multi-agent scenes. ControlMode, when non-empty, switches the
// (single) agent's controller before the action is applied.
type Action struct {
	ControlMode string
	Values      *mat.Dense
	PerAgent    map[string]*mat.Dense
}

// SingleAction wraps one unbatched action vector as a 1 x D batch.
// Environments with more than one replica reject it; broadcasting is
// only implicit when the batch size is one.
func SingleAction(v mat.Vector) *Action {
	d := v.Len()
	row := make([]float64, d)
	for i := 0; i < d; i++ {
		row[i] = v.AtVec(i)
	}
	return &Action{Values: mat.NewDense(1, d, row)}
}

// BatchAction wraps an N x D batched action
func BatchAction(m *mat.Dense) *Action { return &Action{Values: m} }
