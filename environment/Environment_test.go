package environment_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/agent"
	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
)

// stubTask is a minimal task for exercising the lifecycle: one cube
// scattered per episode, with scriptable evaluation flags
type stubTask struct {
	cube    *physics.Actor
	success []bool
	fail    []bool
}

func (t *stubTask) Name() string                 { return "Stub-v0" }
func (t *stubTask) SimConfig() physics.SimConfig { return physics.SimConfig{} }
func (t *stubTask) Robots() []string             { return []string{"floating_gripper"} }

func (t *stubTask) SensorConfigs() []sensor.CameraConfig { return nil }

func (t *stubTask) HumanRenderCameras() []sensor.CameraConfig { return nil }

func (t *stubTask) LoadScene(env *environment.Env) error {
	var err error
	t.cube, err = env.Scene().AddActor(physics.BodyConfig{
		Name: "cube", Type: physics.Dynamic, Shape: physics.Box,
		HalfSize: [3]float64{0.02, 0.02, 0.02}, Mass: 0.1,
		InitialPose: physics.NewPose([3]float64{0, 0, 0.02},
			[4]float64{1, 0, 0, 0}),
	})
	return err
}

func (t *stubTask) InitializeEpisode(env *environment.Env,
	ctx *physics.ResetContext) error {
	poses := t.cube.Poses()
	for i := 0; i < env.NumEnvs(); i++ {
		if !ctx.Active(i) {
			continue
		}
		poses.SetRow(i, []float64{
			ctx.Rand.Float64()*0.2 - 0.1,
			ctx.Rand.Float64()*0.2 - 0.1,
			0.02, 1, 0, 0, 0,
		})
	}
	t.cube.SetPoses(ctx, poses)
	return nil
}

func (t *stubTask) Evaluate(env *environment.Env) environment.Info {
	n := env.NumEnvs()
	success := make([]bool, n)
	fail := make([]bool, n)
	copy(success, t.success)
	copy(fail, t.fail)
	return environment.Info{"success": success, "fail": fail}
}

func u64(v uint64) *uint64 { return &v }

func newStubEnv(t *testing.T, opts environment.Options) (*environment.Env,
	*stubTask) {
	t.Helper()
	if opts.RewardMode == "" {
		opts.RewardMode = "sparse"
	}
	task := &stubTask{}
	env, err := environment.New(task, opts)
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env, task
}

func TestNew_RejectsUnknownModes(t *testing.T) {
	for _, opts := range []environment.Options{
		{ObsMode: "bogus"},
		{RewardMode: "bogus"},
		{RenderMode: "bogus"},
		{BackendName: "bogus"},
	} {
		_, err := environment.New(&stubTask{}, opts)
		assert.ErrorIs(t, err, environment.ErrConfiguration)
	}
}

func TestNew_HostBackendIsSingleReplica(t *testing.T) {
	_, err := environment.New(&stubTask{}, environment.Options{
		NumEnvs:     4,
		BackendName: "host",
		RewardMode:  "sparse",
	})
	assert.ErrorIs(t, err, environment.ErrConfiguration)
}

func TestNew_DenseRewardRequiresTaskHook(t *testing.T) {
	_, err := environment.New(&stubTask{}, environment.Options{
		RewardMode: "dense",
	})
	require.ErrorIs(t, err, environment.ErrConfiguration)

	_, err = environment.New(&stubTask{}, environment.Options{
		RewardMode: "normalized_dense",
	})
	assert.ErrorIs(t, err, environment.ErrConfiguration)
}

func TestNew_MultiReplicaUsesBatchedBackend(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 4,
		Seed: u64(2022)})
	assert.Equal(t, physics.DeviceAccel, env.Scene().Device())
}

func TestReset_SameSeedIsReproducible(t *testing.T) {
	a, _ := newStubEnv(t, environment.Options{NumEnvs: 4, Seed: u64(2022)})
	b, _ := newStubEnv(t, environment.Options{NumEnvs: 4, Seed: u64(2022)})

	assert.True(t, mat.EqualApprox(a.State(), b.State(), 1e-12))

	_, _, err := a.Reset(u64(2022), nil)
	require.NoError(t, err)
	_, _, err = b.Reset(u64(2022), nil)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(a.State(), b.State(), 1e-12))
}

func TestReset_EpisodeSequenceDiffersWithoutSeed(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 2, Seed: u64(2022)})
	first := mat.DenseCopyOf(env.State())

	_, _, err := env.Reset(nil, nil)
	require.NoError(t, err)
	assert.False(t, mat.EqualApprox(first, env.State(), 1e-12))
}

func TestStep_ElapsedAndSubSteps(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 4, Seed: u64(2022)})

	assert.Equal(t, 5, env.SimStepsPerControl()) // 100 Hz sim, 20 Hz control

	res, err := env.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, env.ElapsedSteps())
	assert.Equal(t, []bool{false, false, false, false}, res.Terminated)
	assert.Equal(t, []bool{false, false, false, false}, res.Truncated)
}

func TestStep_FlooredSubStepsForNonMultipleFrequencies(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{
		Seed:      u64(2022),
		SimConfig: physics.SimConfig{SimFreq: 90},
	})
	assert.Equal(t, 4, env.SimStepsPerControl())
}

func TestStep_SparseRewardContract(t *testing.T) {
	env, task := newStubEnv(t, environment.Options{NumEnvs: 4,
		Seed: u64(2022)})
	task.success = []bool{true, false, false, false}
	task.fail = []bool{false, true, false, false}

	res, err := env.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 0, 0}, res.Reward)
	assert.Equal(t, []bool{true, true, false, false}, res.Terminated)
}

func TestStep_RejectsWrongActionShape(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 4, Seed: u64(2022)})

	// wrong width
	_, err := env.Step(environment.BatchAction(mat.NewDense(4, 2, nil)))
	assert.ErrorIs(t, err, agent.ErrInvalidActionShape)

	// unbatched action against a multi-replica environment
	_, err = env.Step(environment.BatchAction(mat.NewDense(1, 4, nil)))
	assert.ErrorIs(t, err, agent.ErrInvalidActionShape)
}

func TestStep_SingleReplicaAcceptsUnbatchedAction(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{Seed: u64(2022)})
	action := environment.SingleAction(mat.NewVecDense(4,
		[]float64{0.01, 0.01, 0, 0}))
	_, err := env.Step(action)
	assert.NoError(t, err)
}

func TestStep_ControlModeSwitch(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{Seed: u64(2022)})
	require.Equal(t, "pd_joint_delta_pos", env.ControlMode())

	_, err := env.Step(&environment.Action{
		ControlMode: "pd_joint_vel",
		Values:      mat.NewDense(1, 4, []float64{0.1, 0, 0, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, "pd_joint_vel", env.ControlMode())

	_, err = env.Step(&environment.Action{ControlMode: "bogus"})
	assert.ErrorIs(t, err, agent.ErrUnknownController)
}

func TestReset_PartialKeepsOtherReplicas(t *testing.T) {
	env, task := newStubEnv(t, environment.Options{NumEnvs: 4,
		Seed: u64(2022)})

	_, err := env.Step(nil)
	require.NoError(t, err)
	before := mat.DenseCopyOf(task.cube.Positions())

	_, _, err = env.Reset(nil, &environment.ResetOptions{EnvIdx: []int{1}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0, 1, 1}, env.ElapsedSteps())
	after := task.cube.Positions()
	for _, i := range []int{0, 2, 3} {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, before.At(i, j), after.At(i, j), 1e-12)
		}
	}
}

func TestReset_PartialWithReconfigureFails(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 4, Seed: u64(2022)})
	_, _, err := env.Reset(nil, &environment.ResetOptions{
		Reconfigure: true,
		EnvIdx:      []int{0, 1},
	})
	assert.ErrorIs(t, err, environment.ErrPartialReconfigure)
}

func TestReset_OutOfRangeEnvIdxFails(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 2, Seed: u64(2022)})
	_, _, err := env.Reset(nil, &environment.ResetOptions{EnvIdx: []int{5}})
	assert.ErrorIs(t, err, environment.ErrConfiguration)
}

func TestReset_ReportsReconfiguration(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{Seed: u64(2022)})

	_, info, err := env.Reset(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, false, info["reconfigure"])

	_, info, err = env.Reset(nil, &environment.ResetOptions{Reconfigure: true})
	require.NoError(t, err)
	assert.Equal(t, true, info["reconfigure"])
}

func TestReset_ReconfigurationFreq(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{
		Seed:                u64(2022),
		ReconfigurationFreq: 1,
	})
	_, info, err := env.Reset(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, true, info["reconfigure"])
}

func TestState_RoundTrip(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 3, Seed: u64(2022)})

	snapshot := mat.DenseCopyOf(env.State())

	action := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		action.SetRow(i, []float64{0.05, -0.05, 0.02, 0})
	}
	_, err := env.Step(environment.BatchAction(action))
	require.NoError(t, err)
	require.False(t, mat.EqualApprox(snapshot, env.State(), 1e-12))

	require.NoError(t, env.SetState(snapshot))
	assert.True(t, mat.EqualApprox(snapshot, env.State(), 1e-9))
}

func TestState_RejectsWrongShape(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 2, Seed: u64(2022)})
	err := env.SetState(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestObs_StateModeIsFlat(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{NumEnvs: 2, Seed: u64(2022)})

	obs, err := env.GetObs(nil)
	require.NoError(t, err)
	state, ok := obs["state"].(*mat.Dense)
	require.True(t, ok)

	rows, cols := state.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, env.ObservationSpace().Dim(), cols)
	assert.Greater(t, cols, 0)
}

func TestObs_StateDictMode(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{
		NumEnvs: 2,
		ObsMode: "state_dict",
		Seed:    u64(2022),
	})

	obs, err := env.GetObs(nil)
	require.NoError(t, err)
	agentObs, ok := obs["agent"].(environment.ObsDict)
	require.True(t, ok)
	qpos, ok := agentObs["qpos"].(*mat.Dense)
	require.True(t, ok)
	rows, cols := qpos.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4, cols)
}

func TestObs_NoneModeIsEmpty(t *testing.T) {
	env, _ := newStubEnv(t, environment.Options{ObsMode: "none",
		Seed: u64(2022)})
	obs, err := env.GetObs(nil)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

// growingTask widens its extra observation block on every scene
// rebuild, exposing stale flat-width caches
type growingTask struct {
	stubTask
	loads int
}

func (t *growingTask) LoadScene(env *environment.Env) error {
	t.loads++
	return t.stubTask.LoadScene(env)
}

func (t *growingTask) ObservationExtra(env *environment.Env,
	visual bool) map[string]*mat.Dense {
	return map[string]*mat.Dense{
		"marker": mat.NewDense(env.NumEnvs(), t.loads, nil),
	}
}

func TestReset_ReconfigureRemeasuresObservationWidth(t *testing.T) {
	task := &growingTask{}
	env, err := environment.New(task, environment.Options{
		RewardMode: "sparse", Seed: u64(2022)})
	require.NoError(t, err)
	t.Cleanup(env.Close)

	first := env.ObservationSpace().Dim()

	obs, _, err := env.Reset(nil, &environment.ResetOptions{Reconfigure: true})
	require.NoError(t, err)
	flat, ok := obs["state"].(*mat.Dense)
	require.True(t, ok)
	_, wide := flat.Dims()

	assert.Equal(t, first+1, wide)
	assert.Equal(t, wide, env.ObservationSpace().Dim())
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	task := &stubTask{}
	env, err := environment.New(task, environment.Options{
		RewardMode: "sparse", Seed: u64(2022)})
	require.NoError(t, err)

	env.Close()
	_, err = env.Step(nil)
	assert.True(t, errors.Is(err, environment.ErrClosed))
	_, _, err = env.Reset(nil, nil)
	assert.True(t, errors.Is(err, environment.ErrClosed))
}
