// Package environment implements batched manipulation environments.
//
// An Env hosts N parallel scene replicas behind a single gym-style
// interface: Reset seeds and randomizes episodes, Step advances all
// replicas by one control step, and observations, rewards, and
// termination signals come back batched. The task being simulated is
// pluggable through the Task interface; the physics backend is chosen
// at construction and hidden behind the physics.Scene facade.
package environment

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/agent"
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
	"github.com/manipgym/manipgym/spec"
)

// Options configures environment construction. The zero value selects
// one replica, state observations, normalized dense rewards, no
// rendering, and the automatic backend.
type Options struct {
	// NumEnvs is the number of parallel scene replicas. Zero means one.
	NumEnvs int

	// ObsMode, RewardMode, RenderMode, and BackendName are resolved at
	// construction; unknown names fail New.
	ObsMode     string
	RewardMode  string
	RenderMode  string
	BackendName string

	// ControlMode selects the controller of every agent. Empty keeps
	// each robot's default.
	ControlMode string

	// RobotUIDs overrides the task's robot list when non-nil
	RobotUIDs []string

	// SimConfig overrides merged over the task and package defaults
	SimConfig physics.SimConfig

	// SensorOverrides and HumanRenderCameraOverrides patch camera
	// configurations by name before instantiation; the empty key
	// applies to all cameras.
	SensorOverrides            map[string]sensor.Override
	HumanRenderCameraOverrides map[string]sensor.Override

	// ReconfigurationFreq triggers a full scene rebuild every that
	// many resets. Zero reconfigures only on the first reset or on
	// request.
	ReconfigurationFreq int

	// Seed seeds the main generator at construction when non-nil
	Seed *uint64

	// Logger receives construction and lifecycle diagnostics. Nil uses
	// the package default logger.
	Logger *logrus.Logger
}

// Env is a batched manipulation environment
type Env struct {
	task Task
	log  *logrus.Entry

	numEnvs     int
	obsMode     ObsMode
	rewardMode  RewardMode
	renderMode  RenderMode
	backend     Backend
	controlMode string
	robotUIDs   []string

	simCfg             physics.SimConfig
	simStepsPerControl int

	sensorOverrides map[string]sensor.Override
	humanOverrides  map[string]sensor.Override

	reconfigFreq    int
	reconfigCounter int

	rng       rngSequencer
	sceneRand *rand.Rand

	scene      *physics.Scene
	agents     []*agent.Agent
	agentByUID map[string]*agent.Agent
	sensors    []*sensor.Camera
	humanCams  []*sensor.Camera
	hidden     []*physics.Actor

	elapsed []int
	layout  []layoutEntry

	rewardFn func(obs ObsDict, action *Action, info Info) []float64

	obsDim int
	closed bool
}

// New builds an environment for task and performs the initial
// reconfiguring reset. Every configuration error surfaces here; a
// returned Env is ready to Step.
func New(task Task, opts Options) (*Env, error) {
	n := opts.NumEnvs
	if n == 0 {
		n = 1
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: num envs %d", ErrConfiguration, n)
	}

	obsMode, err := ParseObsMode(opts.ObsMode)
	if err != nil {
		return nil, err
	}
	rewardMode, err := ParseRewardMode(opts.RewardMode)
	if err != nil {
		return nil, err
	}
	renderMode, err := ParseRenderMode(opts.RenderMode)
	if err != nil {
		return nil, err
	}
	backend, err := ParseBackend(opts.BackendName)
	if err != nil {
		return nil, err
	}
	if backend == BackendAuto {
		if n > 1 {
			backend = BackendBatched
		} else {
			backend = BackendHost
		}
	}
	if backend == BackendHost && n > 1 {
		return nil, fmt.Errorf("%w: host backend supports a single "+
			"replica, got %d", ErrConfiguration, n)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Env{
		task:            task,
		log:             logger.WithField("task", task.Name()),
		numEnvs:         n,
		obsMode:         obsMode,
		rewardMode:      rewardMode,
		renderMode:      renderMode,
		backend:         backend,
		controlMode:     opts.ControlMode,
		robotUIDs:       opts.RobotUIDs,
		sensorOverrides: opts.SensorOverrides,
		humanOverrides:  opts.HumanRenderCameraOverrides,
		reconfigFreq:    opts.ReconfigurationFreq,
		elapsed:         make([]int, n),
	}
	if e.robotUIDs == nil {
		e.robotUIDs = task.Robots()
	}

	e.simCfg = physics.DefaultSimConfig().
		Merge(task.SimConfig()).
		Merge(opts.SimConfig)
	if e.simCfg.SimFreq%e.simCfg.ControlFreq != 0 {
		e.log.WithFields(logrus.Fields{
			"sim_freq":     e.simCfg.SimFreq,
			"control_freq": e.simCfg.ControlFreq,
		}).Warn("sim frequency is not a multiple of control frequency; " +
			"flooring sub-steps per control step")
	}
	e.simStepsPerControl = e.simCfg.SimFreq / e.simCfg.ControlFreq
	if e.simStepsPerControl < 1 {
		return nil, fmt.Errorf("%w: control freq %d exceeds sim freq %d",
			ErrConfiguration, e.simCfg.ControlFreq, e.simCfg.SimFreq)
	}

	if err := e.bindReward(); err != nil {
		return nil, err
	}

	e.rng.setMain(opts.Seed)
	seed := e.rng.mainSeed
	if _, _, err := e.Reset(&seed, &ResetOptions{Reconfigure: true}); err != nil {
		return nil, err
	}
	return e, nil
}

// bindReward resolves the reward mode against the task's capabilities.
// Missing dense hooks fail here instead of on the first Step.
func (e *Env) bindReward() error {
	switch e.rewardMode {
	case RewardNone:
		e.rewardFn = func(ObsDict, *Action, Info) []float64 {
			return make([]float64, e.numEnvs)
		}
	case RewardSparse:
		e.rewardFn = func(_ ObsDict, _ *Action, info Info) []float64 {
			return e.sparseReward(info)
		}
	case RewardDense:
		t, ok := e.task.(DenseRewarder)
		if !ok {
			return fmt.Errorf("%w: task %q does not implement dense rewards",
				ErrConfiguration, e.task.Name())
		}
		e.rewardFn = func(_ ObsDict, action *Action, info Info) []float64 {
			return t.DenseReward(e, action, info)
		}
	case RewardNormalizedDense:
		t, ok := e.task.(NormalizedDenseRewarder)
		if !ok {
			return fmt.Errorf("%w: task %q does not implement normalized "+
				"dense rewards", ErrConfiguration, e.task.Name())
		}
		e.rewardFn = func(_ ObsDict, action *Action, info Info) []float64 {
			return t.NormalizedDenseReward(e, action, info)
		}
	}
	return nil
}

// sparseReward is success minus failure per replica
func (e *Env) sparseReward(info Info) []float64 {
	out := make([]float64, e.numEnvs)
	success, fail := info.Success(), info.Fail()
	for i := range out {
		if success != nil && success[i] {
			out[i] += 1
		}
		if fail != nil && fail[i] {
			out[i] -= 1
		}
	}
	return out
}

// newSystem creates a fresh backend instance for one reconfiguration
func (e *Env) newSystem() (physics.System, error) {
	switch e.backend {
	case BackendHost:
		return kinematicSystem(e.simCfg), nil
	case BackendBatched:
		return batchedSystem(e.simCfg), nil
	case BackendPlanar:
		return planarSystem(e.simCfg, e.numEnvs)
	}
	return nil, fmt.Errorf("%w: unresolved backend", ErrConfiguration)
}

// reconfigure tears down the previous scene and rebuilds everything:
// backend, entities, agents, lights, and sensors. It runs inside the
// scoped episode random context so procedural scene generation is
// reproducible from the episode seed.
func (e *Env) reconfigure(episodeSeed uint64) error {
	if e.scene != nil {
		e.scene.Close()
	}
	e.sceneRand = rand.New(rand.NewSource(episodeSeed))
	e.hidden = nil

	sys, err := e.newSystem()
	if err != nil {
		return err
	}
	e.scene = physics.NewScene(sys, e.numEnvs, e.simCfg)

	e.agents = make([]*agent.Agent, 0, len(e.robotUIDs))
	e.agentByUID = make(map[string]*agent.Agent, len(e.robotUIDs))
	for _, uid := range e.robotUIDs {
		a, err := agent.New(e.scene, uid, e.controlMode)
		if err != nil {
			return err
		}
		e.agents = append(e.agents, a)
		e.agentByUID[uid] = a
	}

	if err := e.task.LoadScene(e); err != nil {
		return fmt.Errorf("load scene: %w", err)
	}

	if e.scene.Device() == physics.DeviceAccel {
		e.scene.ApplyWrites()
		e.scene.FetchResults()
	}

	if err := e.setupSensors(); err != nil {
		return err
	}

	e.reconfigCounter = e.reconfigFreq
	e.recordStateLayout()
	// The flat observation width is re-measured from the next
	// observation of the rebuilt scene.
	e.obsDim = 0
	return nil
}

// setupSensors rebuilds all camera instances from the task's and
// agents' configurations with caller overrides applied
func (e *Env) setupSensors() error {
	cfgs := append([]sensor.CameraConfig{}, e.task.SensorConfigs()...)
	for _, a := range e.agents {
		cfgs = append(cfgs, a.SensorConfigs()...)
	}
	cfgs = sensor.ApplyOverrides(cfgs, e.sensorOverrides)
	e.sensors = e.sensors[:0]
	for _, cfg := range cfgs {
		cam, err := sensor.NewCamera(cfg, e.scene)
		if err != nil {
			return err
		}
		e.sensors = append(e.sensors, cam)
	}

	humanCfgs := sensor.ApplyOverrides(
		append([]sensor.CameraConfig{}, e.task.HumanRenderCameras()...),
		e.humanOverrides)
	e.humanCams = e.humanCams[:0]
	for _, cfg := range humanCfgs {
		cam, err := sensor.NewCamera(cfg, e.scene)
		if err != nil {
			return err
		}
		e.humanCams = append(e.humanCams, cam)
	}
	return nil
}

// NumEnvs returns the number of parallel replicas
func (e *Env) NumEnvs() int { return e.numEnvs }

// Task returns the task being simulated
func (e *Env) Task() Task { return e.task }

// Scene returns the batched physics scene. Tasks use it inside their
// hooks; callers should treat it as read-only.
func (e *Env) Scene() *physics.Scene { return e.scene }

// SceneRand returns the generator tasks draw from during LoadScene.
// It is reseeded from the episode seed on every reconfiguration.
func (e *Env) SceneRand() *rand.Rand { return e.sceneRand }

// Agent returns the single agent of a single-robot environment and
// panics on multi-agent scenes, mirroring the programmer-error
// convention used throughout.
func (e *Env) Agent() *agent.Agent {
	if len(e.agents) != 1 {
		panic(fmt.Sprintf("agent: environment has %d agents; use AgentByUID",
			len(e.agents)))
	}
	return e.agents[0]
}

// Agents returns all agents in load order
func (e *Env) Agents() []*agent.Agent { return e.agents }

// AgentByUID returns the agent for one robot uid, or nil
func (e *Env) AgentByUID(uid string) *agent.Agent { return e.agentByUID[uid] }

// ElapsedSteps returns per-replica control step counts since each
// replica's last reset
func (e *Env) ElapsedSteps() []int {
	out := make([]int, len(e.elapsed))
	copy(out, e.elapsed)
	return out
}

// SimStepsPerControl returns the number of physics sub-steps run per
// control step
func (e *Env) SimStepsPerControl() int { return e.simStepsPerControl }

// SimConfig returns the merged simulation configuration
func (e *Env) SimConfig() physics.SimConfig { return e.simCfg }

// ControlMode returns the active control mode of the first agent
func (e *Env) ControlMode() string {
	if len(e.agents) == 0 {
		return ""
	}
	return e.agents[0].ControlMode()
}

// ObsModeName returns the observation mode name
func (e *Env) ObsModeName() string { return e.obsMode.String() }

// RewardModeName returns the reward mode name
func (e *Env) RewardModeName() string { return e.rewardMode.String() }

// ActionSpace returns the single-replica action layout of the single
// agent
func (e *Env) ActionSpace() spec.Space { return e.Agent().ActionSpace() }

// ObservationSpace returns the flattened observation layout for the
// "state" observation mode. Dict-structured modes have no flat space;
// the returned Space has a nil shape for them.
func (e *Env) ObservationSpace() spec.Space {
	if e.obsMode != ObsState || e.obsDim == 0 {
		return spec.Space{}
	}
	low := make([]float64, e.obsDim)
	high := make([]float64, e.obsDim)
	for i := range low {
		low[i] = math.Inf(-1)
		high[i] = math.Inf(1)
	}
	return spec.New([]int{e.obsDim}, spec.Observation,
		mat.NewVecDense(e.obsDim, low), mat.NewVecDense(e.obsDim, high),
		spec.Continuous)
}

// HideForCapture registers an actor to be hidden while sensors
// capture. Visual markers (goal sites) register themselves here from
// LoadScene so policies never see them.
func (e *Env) HideForCapture(a *physics.Actor) {
	e.hidden = append(e.hidden, a)
}

// Close releases backend resources. Further lifecycle calls fail with
// ErrClosed.
func (e *Env) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.scene != nil {
		e.scene.Close()
	}
}
