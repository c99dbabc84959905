// Package physics defines the facade between the environment
// lifecycle layer and the simulation backends. A Scene groups one or
// more backend sub-scenes (one per replica on host backends, one
// shared context on accelerator-style backends) behind a uniform
// batched interface for state access, stepping, and teardown.
package physics

import "errors"

var (
	// ErrBufferFull is returned when adding a body or articulation
	// would exceed the configured staging buffer capacity
	ErrBufferFull = errors.New("physics: staging buffer capacity exceeded")

	// ErrReplicaCount is returned when a backend cannot host the
	// requested number of replicas
	ErrReplicaCount = errors.New("physics: unsupported replica count for backend")
)

// Body is one replica of a rigid body owned by a backend
type Body interface {
	Pose() Pose
	SetPose(Pose)
	LinearVelocity() [3]float64
	SetLinearVelocity([3]float64)
	AngularVelocity() [3]float64
	SetAngularVelocity([3]float64)
}

// ArticulationBody is one replica of an articulated body owned by a
// backend. QPos/QVel are generalized joint positions and velocities
// with one entry per degree of freedom.
type ArticulationBody interface {
	Root() Body
	Dof() int
	QPos() []float64
	SetQPos([]float64)
	QVel() []float64
	SetQVel([]float64)
	// SetDriveTargets sets per-joint PD position targets applied on
	// subsequent steps
	SetDriveTargets([]float64)
	// SetDriveVelocityTargets sets per-joint velocity targets
	SetDriveVelocityTargets([]float64)
}

// System is a simulation backend. Step advances every replica by one
// fixed timestep. On host backends ApplyWrites and FetchResults are
// no-op; on accelerator-style backends they flush queued state writes
// to the shared context and pull results back into the read snapshot.
type System interface {
	Device() Device
	SetTimestep(dt float64)
	AddBody(replica int, cfg BodyConfig) (Body, error)
	AddArticulation(replica int, cfg ArticulationConfig) (ArticulationBody, error)
	Step()
	ApplyWrites()
	FetchResults()
	Close()
}
