package physics

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Articulation is a batch of N identical articulated bodies, one per
// replica. Generalized coordinates are exposed batched with one row
// per replica.
type Articulation struct {
	name   string
	cfg    ArticulationConfig
	bodies []ArticulationBody
	hidden bool
}

// Name returns the unique articulation name within its scene
func (a *Articulation) Name() string { return a.name }

// Config returns the descriptor the articulation was built from
func (a *Articulation) Config() ArticulationConfig { return a.cfg }

// Dof returns the number of degrees of freedom per replica
func (a *Articulation) Dof() int { return len(a.cfg.Joints) }

// NumReplicas returns the batch size
func (a *Articulation) NumReplicas() int { return len(a.bodies) }

// Hide marks the articulation invisible to sensor captures
func (a *Articulation) Hide() { a.hidden = true }

// Show makes the articulation visible again
func (a *Articulation) Show() { a.hidden = false }

// Hidden reports whether the articulation is excluded from rendering
func (a *Articulation) Hidden() bool { return a.hidden }

// Limits returns the per-joint position limits
func (a *Articulation) Limits() []r1.Interval {
	limits := make([]r1.Interval, len(a.cfg.Joints))
	for i, j := range a.cfg.Joints {
		limits[i] = j.Limits
	}
	return limits
}

// RootPoseAt returns the root pose of replica i
func (a *Articulation) RootPoseAt(i int) Pose { return a.bodies[i].Root().Pose() }

// RootPoses returns an N x 7 matrix of root [p, q] rows
func (a *Articulation) RootPoses() *mat.Dense {
	out := mat.NewDense(len(a.bodies), 7, nil)
	for i, b := range a.bodies {
		out.SetRow(i, b.Root().Pose().Flat())
	}
	return out
}

// SetRootPose sets the same root pose on the replicas selected by ctx
func (a *Articulation) SetRootPose(ctx *ResetContext, p Pose) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.Root().SetPose(p)
		}
	}
}

// QPos returns an N x dof matrix of generalized positions
func (a *Articulation) QPos() *mat.Dense {
	out := mat.NewDense(len(a.bodies), a.Dof(), nil)
	for i, b := range a.bodies {
		out.SetRow(i, b.QPos())
	}
	return out
}

// QVel returns an N x dof matrix of generalized velocities
func (a *Articulation) QVel() *mat.Dense {
	out := mat.NewDense(len(a.bodies), a.Dof(), nil)
	for i, b := range a.bodies {
		out.SetRow(i, b.QVel())
	}
	return out
}

// SetQPos sets the same joint configuration on the replicas selected
// by ctx
func (a *Articulation) SetQPos(ctx *ResetContext, qpos []float64) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetQPos(qpos)
		}
	}
}

// SetQPosBatch sets per-replica joint configurations from an N x dof
// matrix on the replicas selected by ctx
func (a *Articulation) SetQPosBatch(ctx *ResetContext, qpos *mat.Dense) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetQPos(mat.Row(nil, i, qpos))
		}
	}
}

// SetQVel sets the same joint velocities on the replicas selected by
// ctx
func (a *Articulation) SetQVel(ctx *ResetContext, qvel []float64) {
	for i, b := range a.bodies {
		if ctx.Active(i) {
			b.SetQVel(qvel)
		}
	}
}

// SetDriveTargets sets per-replica PD position targets from an
// N x dof matrix. Drive targets are control inputs, not state, so
// they are not masked.
func (a *Articulation) SetDriveTargets(targets *mat.Dense) {
	for i, b := range a.bodies {
		b.SetDriveTargets(mat.Row(nil, i, targets))
	}
}

// SetDriveVelocityTargets sets per-replica velocity targets from an
// N x dof matrix
func (a *Articulation) SetDriveVelocityTargets(targets *mat.Dense) {
	for i, b := range a.bodies {
		b.SetDriveVelocityTargets(mat.Row(nil, i, targets))
	}
}

// State returns the per-replica articulation snapshot: 13 root
// kinematic scalars followed by dof positions and dof velocities
func (a *Articulation) State() *mat.Dense {
	dof := a.Dof()
	out := mat.NewDense(len(a.bodies), kinematicDim+2*dof, nil)
	for i, b := range a.bodies {
		row := make([]float64, 0, kinematicDim+2*dof)
		root := b.Root()
		row = append(row, root.Pose().Flat()...)
		lv := root.LinearVelocity()
		av := root.AngularVelocity()
		row = append(row, lv[0], lv[1], lv[2], av[0], av[1], av[2])
		row = append(row, b.QPos()...)
		row = append(row, b.QVel()...)
		out.SetRow(i, row)
	}
	return out
}

// SetState restores a snapshot produced by State on the replicas
// selected by ctx
func (a *Articulation) SetState(ctx *ResetContext, state *mat.Dense) {
	dof := a.Dof()
	for i, b := range a.bodies {
		if !ctx.Active(i) {
			continue
		}
		row := mat.Row(nil, i, state)
		root := b.Root()
		root.SetPose(PoseFromFlat(row[:7]))
		root.SetLinearVelocity([3]float64{row[7], row[8], row[9]})
		root.SetAngularVelocity([3]float64{row[10], row[11], row[12]})
		b.SetQPos(row[kinematicDim : kinematicDim+dof])
		b.SetQVel(row[kinematicDim+dof : kinematicDim+2*dof])
	}
}
