// Package planar implements a host backend over Box2D for tabletop
// tasks that live in the z=0 plane. Poses map to (x, y, theta-about-z)
// and contacts between bodies are resolved by the Box2D world. The
// backend hosts a single replica; batched planar simulation is not
// supported.
package planar

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/utils/floatutils"
)

// linearDamping emulates tabletop friction in the top-down projection
const linearDamping = 4.0

// Box2D's sequential impulse solver needs its conventional iteration
// counts; configured counts below these floors are raised to them.
const (
	minVelocityIterations = 8
	minPositionIterations = 3
)

// System is the planar backend
type System struct {
	world    box2d.B2World
	dt       float64
	velIters int
	posIters int
	arts     []*articulation
}

// New returns a planar backend for numEnvs replicas. Only a single
// replica is supported.
func New(cfg physics.SimConfig, numEnvs int) (*System, error) {
	if numEnvs != 1 {
		return nil, physics.ErrReplicaCount
	}
	// top-down view: out-of-plane gravity does not project
	world := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	velIters := cfg.SolverVelocityIterations
	if velIters < minVelocityIterations {
		velIters = minVelocityIterations
	}
	posIters := cfg.SolverPositionIterations
	if posIters < minPositionIterations {
		posIters = minPositionIterations
	}
	return &System{world: world, velIters: velIters, posIters: posIters}, nil
}

// Device reports the host execution target
func (s *System) Device() physics.Device { return physics.DeviceHost }

// SetTimestep sets the fixed integration timestep
func (s *System) SetTimestep(dt float64) { s.dt = dt }

// AddBody creates a Box2D body from cfg. Box shapes become polygon
// fixtures, spheres become circles, planes become static edge-less
// sensors.
func (s *System) AddBody(replica int, cfg physics.BodyConfig) (physics.Body, error) {
	def := box2d.NewB2BodyDef()
	switch cfg.Type {
	case physics.Dynamic:
		def.Type = box2d.B2BodyType.B2_dynamicBody
	case physics.Kinematic:
		def.Type = box2d.B2BodyType.B2_kinematicBody
	default:
		def.Type = box2d.B2BodyType.B2_staticBody
	}
	def.Position = box2d.MakeB2Vec2(cfg.InitialPose.P[0], cfg.InitialPose.P[1])
	def.LinearDamping = linearDamping
	def.AngularDamping = linearDamping
	b2 := s.world.CreateBody(def)

	fix := box2d.MakeB2FixtureDef()
	switch cfg.Shape {
	case physics.Sphere:
		circle := box2d.NewB2CircleShape()
		circle.SetRadius(cfg.Radius)
		fix.Shape = circle
	default:
		poly := box2d.NewB2PolygonShape()
		hx, hy := cfg.HalfSize[0], cfg.HalfSize[1]
		if hx == 0 {
			hx = cfg.Radius
		}
		if hy == 0 {
			hy = cfg.Radius
		}
		poly.SetAsBox(hx, hy)
		fix.Shape = poly
	}
	fix.Density = 1.0
	if cfg.Mass > 0 {
		area := 4 * cfg.HalfSize[0] * cfg.HalfSize[1]
		if area > 0 {
			fix.Density = cfg.Mass / area
		}
	}
	fix.Friction = 0.3
	fix.IsSensor = cfg.NoCollision
	b2.CreateFixtureFromDef(&fix)

	return &body{b2: b2, z: cfg.InitialPose.P[2]}, nil
}

// AddArticulation creates a planar articulation: a kinematic Box2D
// body driven through prismatic x/y joints. Only prismatic joints
// along the x and y axes are expressible in the plane.
func (s *System) AddArticulation(replica int,
	cfg physics.ArticulationConfig) (physics.ArticulationBody, error) {
	for _, j := range cfg.Joints {
		if j.Kind != physics.Prismatic || j.Axis[2] != 0 {
			return nil, fmt.Errorf("planar: joint %q: only in-plane "+
				"prismatic joints are supported", j.Name)
		}
	}
	def := box2d.NewB2BodyDef()
	def.Type = box2d.B2BodyType.B2_kinematicBody
	def.Position = box2d.MakeB2Vec2(cfg.BasePose.P[0], cfg.BasePose.P[1])
	b2 := s.world.CreateBody(def)

	poly := box2d.NewB2PolygonShape()
	poly.SetAsBox(0.02, 0.02)
	fix := box2d.MakeB2FixtureDef()
	fix.Shape = poly
	fix.Density = 1.0
	fix.Friction = 0.3
	b2.CreateFixtureFromDef(&fix)

	a := &articulation{
		sys:        s,
		cfg:        cfg,
		b2:         b2,
		base:       [2]float64{cfg.BasePose.P[0], cfg.BasePose.P[1]},
		qvel:       make([]float64, len(cfg.Joints)),
		targets:    make([]float64, len(cfg.Joints)),
		velTargets: make([]float64, len(cfg.Joints)),
	}
	s.arts = append(s.arts, a)
	return a, nil
}

// Step applies articulation drives and advances the Box2D world
func (s *System) Step() {
	for _, a := range s.arts {
		a.applyDrives(s.dt)
	}
	s.world.Step(s.dt, s.velIters, s.posIters)
}

// ApplyWrites is a no-op on the planar backend
func (s *System) ApplyWrites() {}

// FetchResults is a no-op on the planar backend
func (s *System) FetchResults() {}

// Close releases the Box2D world
func (s *System) Close() {
	s.arts = nil
}

type body struct {
	b2 *box2d.B2Body
	z  float64
}

func (b *body) Pose() physics.Pose {
	p := b.b2.GetPosition()
	return physics.Pose{
		P: [3]float64{p.X, p.Y, b.z},
		Q: physics.QuatAboutZ(b.b2.GetAngle()),
	}
}

func (b *body) SetPose(pose physics.Pose) {
	b.z = pose.P[2]
	// extract the z rotation angle from the quaternion
	theta := 2 * math.Atan2(pose.Q[3], pose.Q[0])
	b.b2.SetTransform(box2d.MakeB2Vec2(pose.P[0], pose.P[1]), theta)
}

func (b *body) LinearVelocity() [3]float64 {
	v := b.b2.GetLinearVelocity()
	return [3]float64{v.X, v.Y, 0}
}

func (b *body) SetLinearVelocity(v [3]float64) {
	b.b2.SetLinearVelocity(box2d.MakeB2Vec2(v[0], v[1]))
}

func (b *body) AngularVelocity() [3]float64 {
	return [3]float64{0, 0, b.b2.GetAngularVelocity()}
}

func (b *body) SetAngularVelocity(v [3]float64) {
	b.b2.SetAngularVelocity(v[2])
}

type articulation struct {
	sys           *System
	cfg           physics.ArticulationConfig
	b2            *box2d.B2Body
	base          [2]float64
	qvel          []float64
	targets       []float64
	velTargets    []float64
	hasTargets    bool
	hasVelTargets bool
}

// applyDrives converts PD joint drives into a kinematic body velocity
// so Box2D resolves contacts against pushed objects
func (a *articulation) applyDrives(dt float64) {
	qpos := a.QPos()
	var vel [2]float64
	for i, cfg := range a.cfg.Joints {
		var acc float64
		if a.hasTargets {
			acc += cfg.Stiffness * (a.targets[i] - qpos[i])
		}
		var velTarget float64
		if a.hasVelTargets {
			velTarget = a.velTargets[i]
		}
		acc += cfg.Damping * (velTarget - a.qvel[i])
		if cfg.ForceLimit > 0 {
			acc = floatutils.Clip(acc, -cfg.ForceLimit, cfg.ForceLimit)
		}
		a.qvel[i] += acc * dt
		axis := 0
		if cfg.Axis[1] != 0 {
			axis = 1
		}
		vel[axis] += a.qvel[i]
	}
	a.b2.SetLinearVelocity(box2d.MakeB2Vec2(vel[0], vel[1]))
}

func (a *articulation) Root() physics.Body {
	return &body{b2: a.b2}
}

func (a *articulation) Dof() int { return len(a.cfg.Joints) }

func (a *articulation) QPos() []float64 {
	p := a.b2.GetPosition()
	out := make([]float64, len(a.cfg.Joints))
	offset := [2]float64{p.X - a.base[0], p.Y - a.base[1]}
	for i, cfg := range a.cfg.Joints {
		axis := 0
		if cfg.Axis[1] != 0 {
			axis = 1
		}
		out[i] = offset[axis]
	}
	return out
}

func (a *articulation) SetQPos(qpos []float64) {
	pos := a.base
	for i, cfg := range a.cfg.Joints {
		axis := 0
		if cfg.Axis[1] != 0 {
			axis = 1
		}
		pos[axis] += qpos[i]
	}
	a.b2.SetTransform(box2d.MakeB2Vec2(pos[0], pos[1]), a.b2.GetAngle())
}

func (a *articulation) QVel() []float64 {
	out := make([]float64, len(a.qvel))
	copy(out, a.qvel)
	return out
}

func (a *articulation) SetQVel(qvel []float64) {
	copy(a.qvel, qvel)
	v := a.b2.GetLinearVelocity()
	for i, cfg := range a.cfg.Joints {
		if cfg.Axis[1] != 0 {
			v.Y = qvel[i]
		} else {
			v.X = qvel[i]
		}
	}
	a.b2.SetLinearVelocity(v)
}

func (a *articulation) SetDriveTargets(targets []float64) {
	copy(a.targets, targets)
	a.hasTargets = true
}

func (a *articulation) SetDriveVelocityTargets(targets []float64) {
	copy(a.velTargets, targets)
	a.hasVelTargets = true
}
