package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/physics"
)

// layoutEntry fixes one entity's slot in the flattened state vector.
// The layout is recorded when the scene is built and stays frozen
// until the next reconfiguration, so vectors captured earlier in an
// episode always restore correctly.
type layoutEntry struct {
	articulation bool
	name         string
	width        int
}

func (e *Env) recordStateLayout() {
	e.layout = e.layout[:0]
	for _, a := range e.scene.Actors() {
		e.layout = append(e.layout, layoutEntry{
			name:  a.Name(),
			width: physics.KinematicDim,
		})
	}
	for _, art := range e.scene.Articulations() {
		e.layout = append(e.layout, layoutEntry{
			articulation: true,
			name:         art.Name(),
			width:        physics.KinematicDim + 2*art.Dof(),
		})
	}
}

// StateDim returns the width of the flattened per-replica state vector
func (e *Env) StateDim() int {
	total := 0
	for _, entry := range e.layout {
		total += entry.width
	}
	return total
}

// StateDict returns a structured snapshot of every entity, keyed by
// name
func (e *Env) StateDict() *physics.State {
	return e.scene.State()
}

// SetStateDict restores a structured snapshot on every replica
func (e *Env) SetStateDict(st *physics.State) error {
	if err := e.scene.SetState(nil, st); err != nil {
		return err
	}
	if e.scene.Device() == physics.DeviceAccel {
		e.scene.ApplyWrites()
		e.scene.FetchResults()
	}
	return nil
}

// State flattens the full simulation state into one N x D batch using
// the frozen entity layout
func (e *Env) State() *mat.Dense {
	st := e.scene.State()
	out := mat.NewDense(e.numEnvs, e.StateDim(), nil)
	col := 0
	for _, entry := range e.layout {
		var block *mat.Dense
		if entry.articulation {
			block = st.Articulations[entry.name]
		} else {
			block = st.Actors[entry.name]
		}
		for i := 0; i < e.numEnvs; i++ {
			for j := 0; j < entry.width; j++ {
				out.Set(i, col+j, block.At(i, j))
			}
		}
		col += entry.width
	}
	return out
}

// SetState restores a flattened state batch produced by State. The
// batch must match the frozen layout exactly.
func (e *Env) SetState(state *mat.Dense) error {
	rows, cols := state.Dims()
	if rows != e.numEnvs || cols != e.StateDim() {
		return fmt.Errorf("setState: state is %dx%d, want %dx%d",
			rows, cols, e.numEnvs, e.StateDim())
	}
	st := &physics.State{
		Actors:        make(map[string]*mat.Dense),
		Articulations: make(map[string]*mat.Dense),
	}
	col := 0
	for _, entry := range e.layout {
		block := mat.NewDense(e.numEnvs, entry.width, nil)
		for i := 0; i < e.numEnvs; i++ {
			for j := 0; j < entry.width; j++ {
				block.Set(i, j, state.At(i, col+j))
			}
		}
		if entry.articulation {
			st.Articulations[entry.name] = block
		} else {
			st.Actors[entry.name] = block
		}
		col += entry.width
	}
	return e.SetStateDict(st)
}
