package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
)

// Info is the per-step diagnostic dictionary. Task evaluations place
// their per-replica signals here; the environment adds elapsed step
// counts and reconfiguration flags.
type Info map[string]interface{}

// Success returns the per-replica success flags, or nil when the task
// reports none
func (in Info) Success() []bool {
	b, _ := in["success"].([]bool)
	return b
}

// Fail returns the per-replica failure flags, or nil when the task
// reports none
func (in Info) Fail() []bool {
	b, _ := in["fail"].([]bool)
	return b
}

// Task defines one manipulation task: what to build into the scene,
// how to randomize each episode, and how to judge it. Tasks never
// touch the backend directly; all scene access goes through the Env
// passed to each hook.
type Task interface {
	// Name returns the registered task id
	Name() string

	// SimConfig returns task-level simulation overrides merged over
	// the package defaults. Return the zero value to keep defaults.
	SimConfig() physics.SimConfig

	// Robots returns the robot uids the task loads, in agent order
	Robots() []string

	// SensorConfigs returns the task's observation cameras
	SensorConfigs() []sensor.CameraConfig

	// HumanRenderCameras returns the cameras used for rgb_array
	// rendering, separate from the observation sensors
	HumanRenderCameras() []sensor.CameraConfig

	// LoadScene builds the task's static and dynamic entities into the
	// freshly created scene. Randomization that must survive resets
	// (e.g. model selection) draws from env.SceneRand().
	LoadScene(env *Env) error

	// InitializeEpisode randomizes poses and task state for the
	// replicas selected by ctx, drawing from ctx.Rand
	InitializeEpisode(env *Env, ctx *physics.ResetContext) error

	// Evaluate judges every replica and returns at least the "success"
	// and "fail" flag slices
	Evaluate(env *Env) Info
}

// ExtraObserver is implemented by tasks that export task-specific
// ground-truth observations beyond agent proprioception
type ExtraObserver interface {
	// ObservationExtra returns named batched observation blocks. With
	// visual observation modes, tasks should restrict this to
	// non-privileged values.
	ObservationExtra(env *Env, visual bool) map[string]*mat.Dense
}

// DenseRewarder is implemented by tasks that support the "dense"
// reward mode
type DenseRewarder interface {
	// DenseReward returns one shaped reward per replica
	DenseReward(env *Env, action *Action, info Info) []float64
}

// NormalizedDenseRewarder is implemented by tasks that support the
// "normalized_dense" reward mode
type NormalizedDenseRewarder interface {
	// NormalizedDenseReward returns the dense reward rescaled into
	// [0, 1] (or [-1, 1] for tasks with failure penalties)
	NormalizedDenseReward(env *Env, action *Action, info Info) []float64
}

// ControlHooks is implemented by tasks that need callbacks around the
// sub-step loop of each control step
type ControlHooks interface {
	BeforeControlStep(env *Env)
	AfterControlStep(env *Env)
}
