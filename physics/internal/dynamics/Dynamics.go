// Package dynamics implements the reference rigid and articulated
// state integration shared by the host and batched backends. It
// integrates velocities and PD joint drives; contact resolution is
// owned by the backends that provide it.
package dynamics

import (
	"math"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/utils/floatutils"
)

// RigidState is the mutable state of one rigid body replica
type RigidState struct {
	Pose    physics.Pose
	LinVel  [3]float64
	AngVel  [3]float64
	Dynamic bool
}

// NewRigidState returns the state of a body built from cfg
func NewRigidState(cfg physics.BodyConfig) RigidState {
	pose := cfg.InitialPose
	if pose.Q == ([4]float64{}) {
		pose = physics.NewPose(pose.P, pose.Q)
	}
	return RigidState{Pose: pose, Dynamic: cfg.Type == physics.Dynamic}
}

// Integrate advances the body by dt under gravity. Non-dynamic bodies
// hold their state.
func (r *RigidState) Integrate(dt float64, gravity [3]float64) {
	if !r.Dynamic {
		return
	}
	for i := 0; i < 3; i++ {
		r.LinVel[i] += gravity[i] * dt
		r.Pose.P[i] += r.LinVel[i] * dt
	}
	r.Pose.Q = integrateQuat(r.Pose.Q, r.AngVel, dt)
}

// integrateQuat advances orientation q by angular velocity w over dt
// and renormalizes
func integrateQuat(q [4]float64, w [3]float64, dt float64) [4]float64 {
	wq := [4]float64{0, w[0], w[1], w[2]}
	dq := physics.QuatMul(wq, q)
	for i := range q {
		q[i] += 0.5 * dt * dq[i]
	}
	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm == 0 {
		return [4]float64{1, 0, 0, 0}
	}
	for i := range q {
		q[i] /= norm
	}
	return q
}

// JointState is the mutable state of one articulation replica
type JointState struct {
	Cfg           []physics.JointConfig
	QPos          []float64
	QVel          []float64
	Targets       []float64
	VelTargets    []float64
	HasTargets    bool
	HasVelTargets bool
}

// NewJointState returns the zero joint state for the given joints
func NewJointState(joints []physics.JointConfig) *JointState {
	return &JointState{
		Cfg:        joints,
		QPos:       make([]float64, len(joints)),
		QVel:       make([]float64, len(joints)),
		Targets:    make([]float64, len(joints)),
		VelTargets: make([]float64, len(joints)),
	}
}

// Integrate advances the joints by dt using a semi-implicit PD drive:
// acceleration from stiffness toward the position target and damping
// toward the velocity target, clamped by the joint force limit, then
// position integration clamped to the joint limits.
func (j *JointState) Integrate(dt float64) {
	for i, cfg := range j.Cfg {
		var acc float64
		if j.HasTargets {
			acc += cfg.Stiffness * (j.Targets[i] - j.QPos[i])
		}
		var velTarget float64
		if j.HasVelTargets {
			velTarget = j.VelTargets[i]
		}
		acc += cfg.Damping * (velTarget - j.QVel[i])
		if cfg.ForceLimit > 0 {
			acc = floatutils.Clip(acc, -cfg.ForceLimit, cfg.ForceLimit)
		}
		j.QVel[i] += acc * dt
		j.QPos[i] += j.QVel[i] * dt
		if j.QPos[i] <= cfg.Limits.Min {
			j.QPos[i] = cfg.Limits.Min
			if j.QVel[i] < 0 {
				j.QVel[i] = 0
			}
		} else if j.QPos[i] >= cfg.Limits.Max {
			j.QPos[i] = cfg.Limits.Max
			if j.QVel[i] > 0 {
				j.QVel[i] = 0
			}
		}
	}
}
