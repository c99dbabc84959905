package physics

import "gonum.org/v1/gonum/spatial/r1"

// Device indicates where the state of a simulation backend lives. Host
// backends keep per-replica state directly addressable; accelerator
// style backends stage writes and snapshot reads around explicit
// flush/fetch calls.
type Device int

const (
	DeviceHost Device = iota
	DeviceAccel
)

func (d Device) String() string {
	if d == DeviceAccel {
		return "accel"
	}
	return "host"
}

// BufferConfig sizes the staging buffers of accelerator-style backends.
// Host backends ignore it.
type BufferConfig struct {
	MaxRigidBodies   int `yaml:"max_rigid_bodies"`
	MaxArticulations int `yaml:"max_articulations"`
}

// SimConfig is the full set of simulation tunables, merged from task
// defaults and caller overrides before the scene is constructed and
// immutable afterwards.
type SimConfig struct {
	SimFreq                  int        `yaml:"sim_freq"`
	ControlFreq              int        `yaml:"control_freq"`
	Gravity                  [3]float64 `yaml:"gravity"`
	Spacing                  float64    `yaml:"spacing"`
	SolverPositionIterations int        `yaml:"solver_position_iterations"`
	SolverVelocityIterations int        `yaml:"solver_velocity_iterations"`
	ContactOffset            float64    `yaml:"contact_offset"`
	RestOffset               float64    `yaml:"rest_offset"`
	SleepThreshold           float64    `yaml:"sleep_threshold"`
	Buffers                  BufferConfig `yaml:"buffers"`
}

// DefaultSimConfig returns the library-wide simulation defaults
func DefaultSimConfig() SimConfig {
	return SimConfig{
		SimFreq:                  100,
		ControlFreq:              20,
		Gravity:                  [3]float64{0, 0, -9.81},
		Spacing:                  5,
		SolverPositionIterations: 15,
		SolverVelocityIterations: 1,
		ContactOffset:            0.02,
		SleepThreshold:           0.005,
		Buffers: BufferConfig{
			MaxRigidBodies:   1024,
			MaxArticulations: 64,
		},
	}
}

// Merge overlays the non-zero fields of override onto c and returns
// the result. Gravity is treated as a unit: any non-zero component
// replaces the whole vector.
func (c SimConfig) Merge(override SimConfig) SimConfig {
	out := c
	if override.SimFreq != 0 {
		out.SimFreq = override.SimFreq
	}
	if override.ControlFreq != 0 {
		out.ControlFreq = override.ControlFreq
	}
	if override.Gravity != ([3]float64{}) {
		out.Gravity = override.Gravity
	}
	if override.Spacing != 0 {
		out.Spacing = override.Spacing
	}
	if override.SolverPositionIterations != 0 {
		out.SolverPositionIterations = override.SolverPositionIterations
	}
	if override.SolverVelocityIterations != 0 {
		out.SolverVelocityIterations = override.SolverVelocityIterations
	}
	if override.ContactOffset != 0 {
		out.ContactOffset = override.ContactOffset
	}
	if override.RestOffset != 0 {
		out.RestOffset = override.RestOffset
	}
	if override.SleepThreshold != 0 {
		out.SleepThreshold = override.SleepThreshold
	}
	if override.Buffers.MaxRigidBodies != 0 {
		out.Buffers.MaxRigidBodies = override.Buffers.MaxRigidBodies
	}
	if override.Buffers.MaxArticulations != 0 {
		out.Buffers.MaxArticulations = override.Buffers.MaxArticulations
	}
	return out
}

// BodyType determines how a body participates in the simulation
type BodyType int

const (
	Dynamic BodyType = iota
	Kinematic
	Static
)

// ShapeType is the collision/render shape of a body
type ShapeType int

const (
	Box ShapeType = iota
	Sphere
	Plane
)

// BodyConfig is a pure data descriptor for a rigid body. The same
// config is used for every replica of an actor.
type BodyConfig struct {
	Name        string
	Type        BodyType
	Shape       ShapeType
	HalfSize    [3]float64 // Box
	Radius      float64    // Sphere
	Mass        float64
	Color       [4]float64
	InitialPose Pose
	// NoCollision removes the body from collision handling in
	// backends that resolve contacts (e.g. visual-only goal markers)
	NoCollision bool
}

// JointKind is the kind of a single articulation joint
type JointKind int

const (
	Prismatic JointKind = iota
	Revolute
)

// JointConfig describes one degree of freedom of an articulation
type JointConfig struct {
	Name       string
	Kind       JointKind
	Axis       [3]float64
	Limits     r1.Interval
	Stiffness  float64
	Damping    float64
	ForceLimit float64
}

// ArticulationConfig is a pure data descriptor for an articulated
// body: a root pose plus an ordered list of driven joints
type ArticulationConfig struct {
	Name     string
	BasePose Pose
	Joints   []JointConfig
	Color    [4]float64
	// TCPJoints optionally names the indices of three prismatic
	// joints whose positions give the tool-center-point offset from
	// the articulation root (floating end effector robots)
	TCPJoints []int
}
