// Package kinematic implements the host reference backend: one
// sub-scene per replica, direct state access, velocity integration
// with PD joint drives and no contact resolution.
package kinematic

import (
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/physics/internal/dynamics"
)

// System is the host backend. All state is directly addressable, so
// ApplyWrites and FetchResults are no-ops.
type System struct {
	gravity [3]float64
	dt      float64
	bodies  []*body
	arts    []*articulation
}

// New returns a host backend for the given simulation configuration
func New(cfg physics.SimConfig) *System {
	return &System{gravity: cfg.Gravity}
}

// Device reports the host execution target
func (s *System) Device() physics.Device { return physics.DeviceHost }

// SetTimestep sets the fixed integration timestep
func (s *System) SetTimestep(dt float64) { s.dt = dt }

// AddBody creates one rigid body replica
func (s *System) AddBody(replica int, cfg physics.BodyConfig) (physics.Body, error) {
	b := &body{state: dynamics.NewRigidState(cfg)}
	s.bodies = append(s.bodies, b)
	return b, nil
}

// AddArticulation creates one articulated body replica
func (s *System) AddArticulation(replica int,
	cfg physics.ArticulationConfig) (physics.ArticulationBody, error) {
	root := &body{state: dynamics.RigidState{Pose: physics.NewPose(
		cfg.BasePose.P, cfg.BasePose.Q)}}
	a := &articulation{
		root:   root,
		joints: dynamics.NewJointState(cfg.Joints),
	}
	s.arts = append(s.arts, a)
	return a, nil
}

// Step advances every body and articulation by one timestep
func (s *System) Step() {
	for _, b := range s.bodies {
		b.state.Integrate(s.dt, s.gravity)
	}
	for _, a := range s.arts {
		a.joints.Integrate(s.dt)
	}
}

// ApplyWrites is a no-op on the host backend
func (s *System) ApplyWrites() {}

// FetchResults is a no-op on the host backend
func (s *System) FetchResults() {}

// Close releases the backend
func (s *System) Close() {
	s.bodies = nil
	s.arts = nil
}

type body struct {
	state dynamics.RigidState
}

func (b *body) Pose() physics.Pose { return b.state.Pose }

func (b *body) SetPose(p physics.Pose) { b.state.Pose = p }

func (b *body) LinearVelocity() [3]float64 { return b.state.LinVel }

func (b *body) SetLinearVelocity(v [3]float64) { b.state.LinVel = v }

func (b *body) AngularVelocity() [3]float64 { return b.state.AngVel }

func (b *body) SetAngularVelocity(v [3]float64) { b.state.AngVel = v }

type articulation struct {
	root   *body
	joints *dynamics.JointState
}

func (a *articulation) Root() physics.Body { return a.root }
func (a *articulation) Dof() int           { return len(a.joints.Cfg) }

func (a *articulation) QPos() []float64 {
	out := make([]float64, len(a.joints.QPos))
	copy(out, a.joints.QPos)
	return out
}

func (a *articulation) SetQPos(qpos []float64) {
	copy(a.joints.QPos, qpos)
}

func (a *articulation) QVel() []float64 {
	out := make([]float64, len(a.joints.QVel))
	copy(out, a.joints.QVel)
	return out
}

func (a *articulation) SetQVel(qvel []float64) {
	copy(a.joints.QVel, qvel)
}

func (a *articulation) SetDriveTargets(targets []float64) {
	copy(a.joints.Targets, targets)
	a.joints.HasTargets = true
}

func (a *articulation) SetDriveVelocityTargets(targets []float64) {
	copy(a.joints.VelTargets, targets)
	a.joints.HasVelTargets = true
}
