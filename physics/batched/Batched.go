// Package batched implements the accelerator-style backend: one
// shared simulation context spans all replicas. State writes are
// staged until ApplyWrites flushes them into the live buffers, and
// reads observe the snapshot taken by the last FetchResults, modeling
// the device buffer round-trip of a GPU physics engine. Drive targets
// are control inputs rather than state and take effect immediately.
package batched

import (
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/physics/internal/dynamics"
)

// System is the batched backend
type System struct {
	gravity [3]float64
	dt      float64
	cfg     physics.SimConfig

	bodies []*body
	arts   []*articulation

	pending []func()
}

// New returns a batched backend for the given simulation
// configuration. Buffer capacities in cfg.Buffers bound the number of
// bodies and articulations across all replicas.
func New(cfg physics.SimConfig) *System {
	return &System{gravity: cfg.Gravity, cfg: cfg}
}

// Device reports the accelerator execution target
func (s *System) Device() physics.Device { return physics.DeviceAccel }

// SetTimestep sets the fixed integration timestep
func (s *System) SetTimestep(dt float64) { s.dt = dt }

// AddBody creates one rigid body replica in the shared context
func (s *System) AddBody(replica int, cfg physics.BodyConfig) (physics.Body, error) {
	if len(s.bodies) >= s.cfg.Buffers.MaxRigidBodies {
		return nil, physics.ErrBufferFull
	}
	st := dynamics.NewRigidState(cfg)
	b := &body{sys: s, live: st, snap: st}
	s.bodies = append(s.bodies, b)
	return b, nil
}

// AddArticulation creates one articulated body replica in the shared
// context
func (s *System) AddArticulation(replica int,
	cfg physics.ArticulationConfig) (physics.ArticulationBody, error) {
	if len(s.arts) >= s.cfg.Buffers.MaxArticulations {
		return nil, physics.ErrBufferFull
	}
	rootState := dynamics.RigidState{
		Pose: physics.NewPose(cfg.BasePose.P, cfg.BasePose.Q),
	}
	a := &articulation{
		sys:   s,
		root:  &body{sys: s, live: rootState, snap: rootState},
		live:  dynamics.NewJointState(cfg.Joints),
		snapQPos: make([]float64, len(cfg.Joints)),
		snapQVel: make([]float64, len(cfg.Joints)),
	}
	s.arts = append(s.arts, a)
	return a, nil
}

// Step advances the shared context by one timestep. Results are not
// visible to readers until FetchResults.
func (s *System) Step() {
	for _, b := range s.bodies {
		b.live.Integrate(s.dt, s.gravity)
	}
	for _, a := range s.arts {
		a.live.Integrate(s.dt)
	}
}

// ApplyWrites flushes all staged state writes into the live buffers
// in the order they were queued
func (s *System) ApplyWrites() {
	for _, w := range s.pending {
		w()
	}
	s.pending = s.pending[:0]
}

// FetchResults copies the live buffers into the read snapshot
func (s *System) FetchResults() {
	for _, b := range s.bodies {
		b.snap = b.live
	}
	for _, a := range s.arts {
		a.root.snap = a.root.live
		copy(a.snapQPos, a.live.QPos)
		copy(a.snapQVel, a.live.QVel)
	}
}

// Close releases the backend
func (s *System) Close() {
	s.bodies = nil
	s.arts = nil
	s.pending = nil
}

type body struct {
	sys  *System
	live dynamics.RigidState
	snap dynamics.RigidState
}

func (b *body) Pose() physics.Pose { return b.snap.Pose }

func (b *body) SetPose(p physics.Pose) {
	b.sys.pending = append(b.sys.pending, func() { b.live.Pose = p })
}

func (b *body) LinearVelocity() [3]float64 { return b.snap.LinVel }

func (b *body) SetLinearVelocity(v [3]float64) {
	b.sys.pending = append(b.sys.pending, func() { b.live.LinVel = v })
}

func (b *body) AngularVelocity() [3]float64 { return b.snap.AngVel }

func (b *body) SetAngularVelocity(v [3]float64) {
	b.sys.pending = append(b.sys.pending, func() { b.live.AngVel = v })
}

type articulation struct {
	sys      *System
	root     *body
	live     *dynamics.JointState
	snapQPos []float64
	snapQVel []float64
}

func (a *articulation) Root() physics.Body { return a.root }
func (a *articulation) Dof() int           { return len(a.live.Cfg) }

func (a *articulation) QPos() []float64 {
	out := make([]float64, len(a.snapQPos))
	copy(out, a.snapQPos)
	return out
}

func (a *articulation) SetQPos(qpos []float64) {
	staged := make([]float64, len(qpos))
	copy(staged, qpos)
	a.sys.pending = append(a.sys.pending, func() {
		copy(a.live.QPos, staged)
	})
}

func (a *articulation) QVel() []float64 {
	out := make([]float64, len(a.snapQVel))
	copy(out, a.snapQVel)
	return out
}

func (a *articulation) SetQVel(qvel []float64) {
	staged := make([]float64, len(qvel))
	copy(staged, qvel)
	a.sys.pending = append(a.sys.pending, func() {
		copy(a.live.QVel, staged)
	})
}

func (a *articulation) SetDriveTargets(targets []float64) {
	copy(a.live.Targets, targets)
	a.live.HasTargets = true
}

func (a *articulation) SetDriveVelocityTargets(targets []float64) {
	copy(a.live.VelTargets, targets)
	a.live.HasVelTargets = true
}
