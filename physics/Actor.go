package physics

import "gonum.org/v1/gonum/mat"

// Actor is a batch of N physically identical rigid bodies, one per
// replica. All state accessors are batched; mutators take a
// ResetContext whose mask selects the affected replicas (nil affects
// all).
type Actor struct {
	name   string
	cfg    BodyConfig
	bodies []Body
	hidden bool
}

// Name returns the unique actor name within its scene
func (a *Actor) Name() string { return a.name }

// Config returns the descriptor the actor was built from
func (a *Actor) Config() BodyConfig { return a.cfg }

// Dynamic returns whether the actor simulates free rigid dynamics
func (a *Actor) Dynamic() bool { return a.cfg.Type == Dynamic }

// NumReplicas returns the batch size
func (a *Actor) NumReplicas() int { return len(a.bodies) }

// Hide marks the actor invisible to sensor captures and renders
func (a *Actor) Hide() { a.hidden = true }

// Show makes the actor visible again
func (a *Actor) Show() { a.hidden = false }

// Hidden reports whether the actor is excluded from rendering
func (a *Actor) Hidden() bool { return a.hidden }

// PoseAt returns the pose of replica i
func (a *Actor) PoseAt(i int) Pose { return a.bodies[i].Pose() }

// Poses returns an N x 7 matrix of [p, q] rows
func (a *Actor) Poses() *mat.Dense {
	out := mat.NewDense(len(a.bodies), 7, nil)
	for i, b := range a.bodies {
		out.SetRow(i, b.Pose().Flat())
	}
	return out
}

// Positions returns an N x 3 matrix of positions
func (a *Actor) Positions() *mat.Dense {
	out := mat.NewDense(len(a.bodies), 3, nil)
	for i, b := range a.bodies {
		p := b.Pose().P
		out.SetRow(i, p[:])
	}
	return out
}

// SetPose sets the same pose on every replica selected by ctx
func (a *Actor) SetPose(ctx *ResetContext, p Pose) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetPose(p)
		}
	}
}

// SetPoses sets per-replica poses from an N x 7 matrix of [p, q] rows
// on the replicas selected by ctx
func (a *Actor) SetPoses(ctx *ResetContext, poses *mat.Dense) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetPose(PoseFromFlat(mat.Row(nil, i, poses)))
		}
	}
}

// LinearVelocities returns an N x 3 matrix of linear velocities
func (a *Actor) LinearVelocities() *mat.Dense {
	out := mat.NewDense(len(a.bodies), 3, nil)
	for i, b := range a.bodies {
		v := b.LinearVelocity()
		out.SetRow(i, v[:])
	}
	return out
}

// AngularVelocities returns an N x 3 matrix of angular velocities
func (a *Actor) AngularVelocities() *mat.Dense {
	out := mat.NewDense(len(a.bodies), 3, nil)
	for i, b := range a.bodies {
		v := b.AngularVelocity()
		out.SetRow(i, v[:])
	}
	return out
}

// SetLinearVelocity sets the same linear velocity on the replicas
// selected by ctx
func (a *Actor) SetLinearVelocity(ctx *ResetContext, v [3]float64) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetLinearVelocity(v)
		}
	}
}

// SetAngularVelocity sets the same angular velocity on the replicas
// selected by ctx
func (a *Actor) SetAngularVelocity(ctx *ResetContext, v [3]float64) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetAngularVelocity(v)
		}
	}
}

// KinematicState returns the fixed 13-scalar-per-replica snapshot of
// the actor: 3 position + 4 orientation + 3 linear velocity + 3
// angular velocity
func (a *Actor) KinematicState() *mat.Dense {
	out := mat.NewDense(len(a.bodies), kinematicDim, nil)
	for i, b := range a.bodies {
		row := make([]float64, 0, kinematicDim)
		row = append(row, b.Pose().Flat()...)
		lv := b.LinearVelocity()
		av := b.AngularVelocity()
		row = append(row, lv[0], lv[1], lv[2], av[0], av[1], av[2])
		out.SetRow(i, row)
	}
	return out
}

// SetKinematicState restores a snapshot produced by KinematicState on
// the replicas selected by ctx
func (a *Actor) SetKinematicState(ctx *ResetContext, state *mat.Dense) {
	for i, b := range a.bodies {
		if !ctx.Active(i) {
			continue
		}
		row := mat.Row(nil, i, state)
		b.SetPose(PoseFromFlat(row[:7]))
		b.SetLinearVelocity([3]float64{row[7], row[8], row[9]})
		b.SetAngularVelocity([3]float64{row[10], row[11], row[12]})
	}
}
