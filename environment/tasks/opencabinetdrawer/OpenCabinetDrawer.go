// Package opencabinetdrawer implements an articulated-object task:
// grasp the drawer handle and pull the drawer out past its open
// threshold. The drawer is a one-dof prismatic articulation loaded by
// the task, separate from the robot.
package opencabinetdrawer

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
	"github.com/manipgym/manipgym/utils/matutils"
)

const (
	// drawerTravel is the prismatic joint range of the drawer
	drawerTravel = 0.22
	// openFraction of the travel the drawer must be pulled past
	openFraction = 0.9
	// initJitter bounds the initial drawer opening per episode
	initJitter = 0.02

	graspRadius   = 0.05
	gripperClosed = 0.035
	handleZ       = 0.3
	drawerFrontX  = -0.2

	maxReward = 3.0
)

// Task is the OpenCabinetDrawer-v1 task
type Task struct {
	cabinet *physics.Actor
	drawer  *physics.Articulation
	marker  *physics.Actor
}

// New returns a fresh task instance
func New() *Task { return &Task{} }

// Name returns the task id
func (t *Task) Name() string { return "OpenCabinetDrawer-v1" }

// SimConfig keeps the package simulation defaults
func (t *Task) SimConfig() physics.SimConfig { return physics.SimConfig{} }

// Robots loads a single floating gripper
func (t *Task) Robots() []string { return []string{"floating_gripper"} }

// SensorConfigs returns the fixed base camera
func (t *Task) SensorConfigs() []sensor.CameraConfig {
	return []sensor.CameraConfig{{
		Name: "base_camera", Width: 128, Height: 128,
		Pose: sensor.LookAt([3]float64{0.3, 0, 0.6}, [3]float64{-0.1, 0, 0.1}),
		FovY: math.Pi / 2, Near: 0.01, Far: 100,
	}}
}

// HumanRenderCameras returns the wide visualization camera
func (t *Task) HumanRenderCameras() []sensor.CameraConfig {
	return []sensor.CameraConfig{{
		Name: "render_camera", Width: 512, Height: 512,
		Pose: sensor.LookAt([3]float64{0.8, 0.9, 0.7}, [3]float64{-0.2, 0, 0.2}),
		FovY: 1, Near: 0.01, Far: 100,
	}}
}

// LoadScene builds the cabinet carcass, the drawer articulation, and
// the hidden handle marker
func (t *Task) LoadScene(env *environment.Env) error {
	sc := env.Scene()
	var err error
	_, err = sc.AddActor(physics.BodyConfig{
		Name: "floor", Type: physics.Static, Shape: physics.Box,
		HalfSize: [3]float64{0.6, 0.6, 0.2},
		Color:    [4]float64{0.5, 0.5, 0.5, 1},
		InitialPose: physics.NewPose([3]float64{0, 0, -0.2},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	t.cabinet, err = sc.AddActor(physics.BodyConfig{
		Name: "cabinet", Type: physics.Static, Shape: physics.Box,
		HalfSize: [3]float64{0.15, 0.2, 0.2},
		Color:    [4]float64{0.55, 0.35, 0.2, 1},
		InitialPose: physics.NewPose([3]float64{-0.38, 0, 0.2},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	t.drawer, err = sc.AddArticulation(physics.ArticulationConfig{
		Name: "drawer",
		BasePose: physics.NewPose([3]float64{drawerFrontX, 0, handleZ},
			[4]float64{1, 0, 0, 0}),
		Joints: []physics.JointConfig{{
			Name: "slide", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
			Limits: r1.Interval{Min: 0, Max: drawerTravel}, Damping: 10,
			ForceLimit: 50,
		}},
		Color: [4]float64{0.7, 0.5, 0.3, 1},
	})
	if err != nil {
		return err
	}
	t.marker, err = sc.AddActor(physics.BodyConfig{
		Name: "handle_marker", Type: physics.Kinematic, Shape: physics.Sphere,
		Radius:      graspRadius,
		Color:       [4]float64{0, 1, 0, 1},
		NoCollision: true,
		InitialPose: physics.NewPose([3]float64{drawerFrontX, 0, handleZ},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	env.HideForCapture(t.marker)
	return nil
}

// InitializeEpisode closes the drawer up to a small random opening and
// places the handle marker on the handle
func (t *Task) InitializeEpisode(env *environment.Env,
	ctx *physics.ResetContext) error {
	n := env.NumEnvs()
	qpos := t.drawer.QPos()
	marker := t.marker.Poses()
	for i := 0; i < n; i++ {
		if !ctx.Active(i) {
			continue
		}
		q := ctx.Rand.Float64() * initJitter
		qpos.Set(i, 0, q)
		marker.SetRow(i, []float64{drawerFrontX + q, 0, handleZ, 1, 0, 0, 0})
	}
	t.drawer.SetQPosBatch(ctx, qpos)
	t.marker.SetPoses(ctx, marker)
	return nil
}

// handlePositions returns the batched handle position: the drawer base
// displaced along the slide axis by the joint position
func (t *Task) handlePositions() *mat.Dense {
	qpos := t.drawer.QPos()
	n, _ := qpos.Dims()
	out := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, drawerFrontX+qpos.At(i, 0))
		out.Set(i, 1, 0)
		out.Set(i, 2, handleZ)
	}
	return out
}

// isGrasped reports per replica whether the gripper holds the handle:
// tool center point at the handle with the gripper closed
func (t *Task) isGrasped(env *environment.Env) []bool {
	n := env.NumEnvs()
	tcp := env.Agent().TCP()
	handle := t.handlePositions()
	qpos := env.Agent().Robot().QPos()
	gripperIdx := env.Agent().Robot().Dof() - 1

	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = dist3(tcp, handle, i) <= graspRadius &&
			qpos.At(i, gripperIdx) < gripperClosed
	}
	return out
}

// BeforeControlStep is part of the control hook pair
func (t *Task) BeforeControlStep(env *environment.Env) {}

// AfterControlStep couples the drawer to the gripper: on replicas
// where the handle is grasped, the drawer follows the tool center
// point within its joint limits, and the marker tracks the handle
func (t *Task) AfterControlStep(env *environment.Env) {
	n := env.NumEnvs()
	grasped := t.isGrasped(env)
	tcp := env.Agent().TCP()
	qpos := t.drawer.QPos()
	marker := t.marker.Poses()

	moved := false
	for i := 0; i < n; i++ {
		if !grasped[i] {
			continue
		}
		q := tcp.At(i, 0) - drawerFrontX
		if q < 0 {
			q = 0
		}
		if q > drawerTravel {
			q = drawerTravel
		}
		qpos.Set(i, 0, q)
		marker.SetRow(i, []float64{drawerFrontX + q, 0, handleZ, 1, 0, 0, 0})
		moved = true
	}
	if !moved {
		return
	}
	t.drawer.SetQPosBatch(nil, qpos)
	t.marker.SetPoses(nil, marker)
	if env.Scene().Device() == physics.DeviceAccel {
		env.Scene().ApplyWrites()
		env.Scene().FetchResults()
	}
}

// Evaluate judges every replica: the drawer must be pulled past the
// open threshold
func (t *Task) Evaluate(env *environment.Env) environment.Info {
	n := env.NumEnvs()
	open := make([]bool, n)
	success := make([]bool, n)
	qpos := t.drawer.QPos()
	grasped := t.isGrasped(env)

	threshold := openFraction * drawerTravel
	for i := 0; i < n; i++ {
		open[i] = qpos.At(i, 0) >= threshold
		success[i] = open[i]
	}
	return environment.Info{
		"success":           success,
		"fail":              make([]bool, n),
		"is_drawer_open":    open,
		"is_handle_grasped": grasped,
	}
}

// ObservationExtra exports the tool center point and handle position
// always, and the drawer joint state only for state-structured modes
func (t *Task) ObservationExtra(env *environment.Env,
	visual bool) map[string]*mat.Dense {
	handle := t.handlePositions()
	extra := map[string]*mat.Dense{
		"tcp_pos":    env.Agent().TCP(),
		"handle_pos": handle,
	}
	if visual {
		return extra
	}
	extra["drawer_qpos"] = t.drawer.QPos()
	extra["tcp_to_handle_pos"] = matutils.SubRows(handle, env.Agent().TCP())
	return extra
}

// DenseReward shapes the pull in two stages: reach the handle, then
// open the drawer. Success saturates the reward.
func (t *Task) DenseReward(env *environment.Env, action *environment.Action,
	info environment.Info) []float64 {
	n := env.NumEnvs()
	out := make([]float64, n)
	tcp := env.Agent().TCP()
	handle := t.handlePositions()
	qpos := t.drawer.QPos()
	grasped, _ := info["is_handle_grasped"].([]bool)
	success := info.Success()

	threshold := openFraction * drawerTravel
	for i := 0; i < n; i++ {
		out[i] = 1 - math.Tanh(5*dist3(tcp, handle, i))

		if grasped != nil && grasped[i] {
			frac := qpos.At(i, 0) / threshold
			if frac > 1 {
				frac = 1
			}
			out[i] = 1 + frac
		}
		if success != nil && success[i] {
			out[i] = maxReward
		}
	}
	return out
}

// NormalizedDenseReward rescales the dense reward into [0, 1]
func (t *Task) NormalizedDenseReward(env *environment.Env,
	action *environment.Action, info environment.Info) []float64 {
	out := t.DenseReward(env, action, info)
	for i := range out {
		out[i] /= maxReward
	}
	return out
}

func dist3(a, b *mat.Dense, i int) float64 {
	dx := a.At(i, 0) - b.At(i, 0)
	dy := a.At(i, 1) - b.At(i, 1)
	dz := a.At(i, 2) - b.At(i, 2)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
