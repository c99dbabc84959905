// Package stackcube implements a tabletop stacking task: pick up the
// red cube and stack it on the green one. An episode succeeds when the
// red cube rests statically on top of the green cube with the gripper
// released.
package stackcube

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
	// spawnHalf bounds the xy spawn region of both cubes
	spawnHalf = 0.1
	// minSeparation keeps the cubes from spawning interpenetrated
	minSeparation = 3 * cubeHalfSize

	// maxReward is the dense reward at success, used for normalization
	maxReward = 8.0
)

// Task is the StackCube-v1 task
type Task struct {
	cubeA *physics.Actor
	cubeB *physics.Actor
	table *physics.Actor
}

// New returns a fresh task instance
func New() *Task { return &Task{} }

// Name returns the task id
func (t *Task) Name() string { return "StackCube-v1" }

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
		Pose: sensor.LookAt([3]float64{0.6, 0.7, 0.6}, [3]float64{0, 0, 0.35}),
		FovY: 1, Near: 0.01, Far: 100,
	}}
}

// LoadScene builds the table and the two cubes
func (t *Task) LoadScene(env *environment.Env) error {
	sc := env.Scene()
	var err error
	t.table, err = sc.AddActor(physics.BodyConfig{
		Name: "table", Type: physics.Static, Shape: physics.Box,
		HalfSize: [3]float64{0.4, 0.4, 0.2},
		Color:    [4]float64{0.5, 0.5, 0.5, 1},
		InitialPose: physics.NewPose([3]float64{0, 0, -0.2},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	t.cubeA, err = sc.AddActor(physics.BodyConfig{
		Name: "cubeA", Type: physics.Dynamic, Shape: physics.Box,
		HalfSize: [3]float64{cubeHalfSize, cubeHalfSize, cubeHalfSize},
		Mass:     0.1,
		Color:    [4]float64{1, 0, 0, 1},
		InitialPose: physics.NewPose([3]float64{0, 0, cubeHalfSize},
			[4]float64{1, 0, 0, 0}),
	})
	if err != nil {
		return err
	}
	t.cubeB, err = sc.AddActor(physics.BodyConfig{
		Name: "cubeB", Type: physics.Dynamic, Shape: physics.Box,
		HalfSize: [3]float64{cubeHalfSize, cubeHalfSize, cubeHalfSize},
		Mass:     0.1,
		Color:    [4]float64{0, 1, 0, 1},
		InitialPose: physics.NewPose([3]float64{0.05, 0, cubeHalfSize},
			[4]float64{1, 0, 0, 0}),
	})
	return err
}

// InitializeEpisode scatters both cubes over the spawn region with
// random z-rotations, rejecting placements that would interpenetrate
func (t *Task) InitializeEpisode(env *environment.Env,
	ctx *physics.ResetContext) error {
	n := env.NumEnvs()
	posesA := t.cubeA.Poses()
	posesB := t.cubeB.Poses()
	for i := 0; i < n; i++ {
		if !ctx.Active(i) {
			continue
		}
		ax := sampleXY(ctx)
		bx := sampleXY(ctx)
		for dist2(ax, bx) < minSeparation*minSeparation {
			bx = sampleXY(ctx)
		}
		qa := physics.QuatAboutZ(ctx.Rand.Float64() * 2 * math.Pi)
		qb := physics.QuatAboutZ(ctx.Rand.Float64() * 2 * math.Pi)
		posesA.SetRow(i, []float64{ax[0], ax[1], cubeHalfSize,
			qa[0], qa[1], qa[2], qa[3]})
		posesB.SetRow(i, []float64{bx[0], bx[1], cubeHalfSize,
			qb[0], qb[1], qb[2], qb[3]})
	}
	t.cubeA.SetPoses(ctx, posesA)
	t.cubeB.SetPoses(ctx, posesB)
	return nil
}

func sampleXY(ctx *physics.ResetContext) [2]float64 {
	return [2]float64{
		(ctx.Rand.Float64()*2 - 1) * spawnHalf,
		(ctx.Rand.Float64()*2 - 1) * spawnHalf,
	}
}

func dist2(a, b [2]float64) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}

// Evaluate judges every replica: cubeA must sit on cubeB, be at rest,
// and be released by the gripper
func (t *Task) Evaluate(env *environment.Env) environment.Info {
	n := env.NumEnvs()
	onTop := make([]bool, n)
	static := make([]bool, n)
	grasped := make([]bool, n)
	success := make([]bool, n)

	posA := t.cubeA.Positions()
	posB := t.cubeB.Positions()
	velA := t.cubeA.LinearVelocities()
	angA := t.cubeA.AngularVelocities()
	tcp := env.Agent().TCP()
	qpos := env.Agent().Robot().QPos()
	gripperIdx := env.Agent().Robot().Dof() - 1

	xyThreshold := math.Sqrt2*cubeHalfSize + 0.005
	for i := 0; i < n; i++ {
		dx := posA.At(i, 0) - posB.At(i, 0)
		dy := posA.At(i, 1) - posB.At(i, 1)
		dz := posA.At(i, 2) - posB.At(i, 2)
		xyFlag := math.Hypot(dx, dy) <= xyThreshold
		zFlag := math.Abs(dz-2*cubeHalfSize) <= 0.005
		onTop[i] = xyFlag && zFlag

		lin := math.Sqrt(velA.At(i, 0)*velA.At(i, 0) +
			velA.At(i, 1)*velA.At(i, 1) + velA.At(i, 2)*velA.At(i, 2))
		ang := math.Sqrt(angA.At(i, 0)*angA.At(i, 0) +
			angA.At(i, 1)*angA.At(i, 1) + angA.At(i, 2)*angA.At(i, 2))
		static[i] = lin <= 1e-2 && ang <= 0.5

		grasped[i] = t.isGrasped(tcp, posA, qpos, gripperIdx, i)
		success[i] = onTop[i] && static[i] && !grasped[i]
	}
	return environment.Info{
		"success":           success,
		"fail":              make([]bool, n),
		"is_cubeA_on_cubeB": onTop,
		"is_cubeA_static":   static,
		"is_cubeA_grasped":  grasped,
	}
}

// isGrasped approximates grasp detection: the tool center point is at
// the cube and the gripper is at least partially closed
func (t *Task) isGrasped(tcp, posA *mat.Dense, qpos *mat.Dense,
	gripperIdx, i int) bool {
	d := math.Sqrt(
		(tcp.At(i, 0)-posA.At(i, 0))*(tcp.At(i, 0)-posA.At(i, 0)) +
			(tcp.At(i, 1)-posA.At(i, 1))*(tcp.At(i, 1)-posA.At(i, 1)) +
			(tcp.At(i, 2)-posA.At(i, 2))*(tcp.At(i, 2)-posA.At(i, 2)))
	return d <= 2*cubeHalfSize && qpos.At(i, gripperIdx) < 0.035
}

// ObservationExtra exports the tool center point always and the
// ground-truth cube poses only for state-structured modes
func (t *Task) ObservationExtra(env *environment.Env,
	visual bool) map[string]*mat.Dense {
	tcp := env.Agent().TCP()
	extra := map[string]*mat.Dense{"tcp_pos": tcp}
	if visual {
		return extra
	}
	posA := t.cubeA.Positions()
	posB := t.cubeB.Positions()
	extra["cubeA_pose"] = t.cubeA.Poses()
	extra["cubeB_pose"] = t.cubeB.Poses()
	extra["tcp_to_cubeA_pos"] = matutils.SubRows(posA, tcp)
	extra["cubeA_to_cubeB_pos"] = matutils.SubRows(posB, posA)
	return extra
}

// DenseReward shapes the task in stages: reach, grasp and lift, place
// above the base cube, then release and settle. Success saturates the
// reward at its maximum.
func (t *Task) DenseReward(env *environment.Env, action *environment.Action,
	info environment.Info) []float64 {
	n := env.NumEnvs()
	out := make([]float64, n)

	posA := t.cubeA.Positions()
	posB := t.cubeB.Positions()
	tcp := env.Agent().TCP()
	onTop, _ := info["is_cubeA_on_cubeB"].([]bool)
	static, _ := info["is_cubeA_static"].([]bool)
	grasped, _ := info["is_cubeA_grasped"].([]bool)
	success := info.Success()

	for i := 0; i < n; i++ {
		reachDist := dist3(tcp, posA, i)
		out[i] = 2 * (1 - math.Tanh(5*reachDist))

		if grasped != nil && grasped[i] {
			// goal is directly above cubeB by one cube height
			gx := posB.At(i, 0)
			gy := posB.At(i, 1)
			gz := posB.At(i, 2) + 2*cubeHalfSize
			dx := posA.At(i, 0) - gx
			dy := posA.At(i, 1) - gy
			dz := posA.At(i, 2) - gz
			placeDist := math.Sqrt(dx*dx + dy*dy + dz*dz)
			out[i] = 4 + (1 - math.Tanh(5*placeDist))
		}
		if onTop != nil && onTop[i] {
			out[i] = 6
			if static != nil && static[i] {
				out[i] = 7
			}
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
