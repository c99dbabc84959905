package physics

import "gonum.org/v1/gonum/mat"

// kinematicDim is the fixed per-actor snapshot width: 3 position + 4
// orientation + 3 linear velocity + 3 angular velocity
const kinematicDim = 13

// KinematicDim is the per-actor width of the flat state layout
const KinematicDim = kinematicDim

// State is a full kinematic snapshot of a scene keyed by entity name.
// Actor entries are N x 13 matrices; articulation entries are
// N x (13 + 2*dof) matrices.
type State struct {
	Actors        map[string]*mat.Dense
	Articulations map[string]*mat.Dense
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	out := &State{
		Actors:        make(map[string]*mat.Dense, len(s.Actors)),
		Articulations: make(map[string]*mat.Dense, len(s.Articulations)),
	}
	for name, m := range s.Actors {
		out.Actors[name] = mat.DenseCopyOf(m)
	}
	for name, m := range s.Articulations {
		out.Articulations[name] = mat.DenseCopyOf(m)
	}
	return out
}
