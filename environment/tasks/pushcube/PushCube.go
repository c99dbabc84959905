// Package pushcube implements a planar pushing task: slide the cube
// into the goal region. The goal marker is a visual-only actor hidden
// from sensor captures so policies cannot key on its pixels.
package pushcube

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
	"github.com/manipgym/manipgym/utils/matutils"
)

const (
	cubeHalfSize = 0.02
	goalRadius   = 0.1
	spawnHalf    = 0.1

	maxReward = 3.0
)

// Task is the PushCube-v1 task
type Task struct {
	cube *physics.Actor
	goal *physics.Actor
}

// New returns a fresh task instance
func New() *Task { return &Task{} }

// Name returns the task id
func (t *Task) Name() string { return "PushCube-v1" }

// SimConfig keeps the package simulation defaults
func (t *Task) SimConfig() physics.SimConfig { return physics.SimConfig{} }

// Robots loads a single planar pusher
func (t *Task) Robots() []string { return []string{"pusher"} }

// SensorConfigs returns the fixed top-down camera
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
		Pose: sensor.LookAt([3]float64{0.6, 0.7, 0.6}, [3]float64{0, 0, 0.35}),
		FovY: 1, Near: 0.01, Far: 100,
	}}
}

// LoadScene builds the cube and the goal region marker
func (t *Task) LoadScene(env *environment.Env) error {
	sc := env.Scene()
	var err error
	t.cube, err = sc.AddActor(physics.BodyConfig{
		Name: "cube", Type: physics.Dynamic, Shape: physics.Box,
		HalfSize: [3]float64{cubeHalfSize, cubeHalfSize, cubeHalfSize},
		Mass:     0.1,
		Color:    [4]float64{1, 0, 0, 1},
		InitialPose: physics.NewPose([3]float64{0, 0, cubeHalfSize},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	t.goal, err = sc.AddActor(physics.BodyConfig{
		Name: "goal_region", Type: physics.Kinematic, Shape: physics.Sphere,
		Radius:      goalRadius,
		Color:       [4]float64{0, 1, 0, 0.5},
		NoCollision: true,
		InitialPose: physics.NewPose([3]float64{0.2, 0, 0},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	env.HideForCapture(t.goal)
	return nil
}

// InitializeEpisode scatters the cube and places the goal region ahead
// of it along +x with lateral jitter
func (t *Task) InitializeEpisode(env *environment.Env,
	ctx *physics.ResetContext) error {
	n := env.NumEnvs()
	cubePoses := t.cube.Poses()
	goalPoses := t.goal.Poses()
	for i := 0; i < n; i++ {
		if !ctx.Active(i) {
			continue
		}
		cx := (ctx.Rand.Float64()*2 - 1) * spawnHalf
		cy := (ctx.Rand.Float64()*2 - 1) * spawnHalf
		q := physics.QuatAboutZ(ctx.Rand.Float64() * 2 * math.Pi)
		gx := cx + 0.15 + ctx.Rand.Float64()*0.05
		gy := cy + (ctx.Rand.Float64()*2-1)*0.1
		cubePoses.SetRow(i, []float64{cx, cy, cubeHalfSize,
			q[0], q[1], q[2], q[3]})
		goalPoses.SetRow(i, []float64{gx, gy, 0, 1, 0, 0, 0})
	}
	t.cube.SetPoses(ctx, cubePoses)
	t.goal.SetPoses(ctx, goalPoses)
	return nil
}

// Evaluate judges every replica: the cube's xy center must lie inside
// the goal region
func (t *Task) Evaluate(env *environment.Env) environment.Info {
	n := env.NumEnvs()
	success := make([]bool, n)
	cube := t.cube.Positions()
	goal := t.goal.Positions()
	for i := 0; i < n; i++ {
		dx := cube.At(i, 0) - goal.At(i, 0)
		dy := cube.At(i, 1) - goal.At(i, 1)
		success[i] = math.Hypot(dx, dy) < goalRadius
	}
	return environment.Info{
		"success": success,
		"fail":    make([]bool, n),
	}
}

// ObservationExtra exports the tool center point and goal position
// always, and the ground-truth cube pose only for state-structured
// modes
func (t *Task) ObservationExtra(env *environment.Env,
	visual bool) map[string]*mat.Dense {
	extra := map[string]*mat.Dense{
		"tcp_pos":  env.Agent().TCP(),
		"goal_pos": t.goal.Positions(),
	}
	if visual {
		return extra
	}
	extra["obj_pose"] = t.cube.Poses()
	extra["obj_to_goal_pos"] = matutils.SubRows(t.goal.Positions(),
		t.cube.Positions())
	return extra
}

// DenseReward shapes the push in two stages: reach the cube, then
// close the cube-to-goal distance. Success saturates the reward.
func (t *Task) DenseReward(env *environment.Env, action *environment.Action,
	info environment.Info) []float64 {
	n := env.NumEnvs()
	out := make([]float64, n)
	tcp := env.Agent().TCP()
	cube := t.cube.Positions()
	goal := t.goal.Positions()
	success := info.Success()

	for i := 0; i < n; i++ {
		reachDist := math.Hypot(tcp.At(i, 0)-cube.At(i, 0),
			tcp.At(i, 1)-cube.At(i, 1)) - cubeHalfSize
		if reachDist < 0 {
			reachDist = 0
		}
		reached := 1 - math.Tanh(5*reachDist)
		out[i] = reached

		placeDist := math.Hypot(cube.At(i, 0)-goal.At(i, 0),
			cube.At(i, 1)-goal.At(i, 1))
		out[i] += (1 - math.Tanh(5*placeDist)) * reached

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
