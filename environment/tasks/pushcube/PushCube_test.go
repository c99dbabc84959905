package pushcube_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/environment/tasks/pushcube"
	"github.com/manipgym/manipgym/physics"
)

func newEnv(t *testing.T, numEnvs int, opts environment.Options) (*environment.Env,
	*pushcube.Task) {
	t.Helper()
	seed := uint64(2022)
	task := pushcube.New()
	opts.NumEnvs = numEnvs
	opts.Seed = &seed
	env, err := environment.New(task, opts)
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env, task
}

func TestEvaluate_SuccessInsideGoalRegion(t *testing.T) {
	env, task := newEnv(t, 1, environment.Options{})
	sc := env.Scene()
	goal := sc.Actor("goal_region").PoseAt(0)

	sc.Actor("cube").SetPose(nil, physics.NewPose(
		[3]float64{goal.P[0], goal.P[1], 0.02}, [4]float64{1, 0, 0, 0}))
	sc.ApplyWrites()
	sc.FetchResults()

	info := task.Evaluate(env)
	assert.Equal(t, []bool{true}, info.Success())
}

func TestEvaluate_FreshEpisodeIsUnsolved(t *testing.T) {
	env, task := newEnv(t, 4, environment.Options{})
	// the goal region always spawns at least 0.15 ahead of the cube
	info := task.Evaluate(env)
	assert.Equal(t, []bool{false, false, false, false}, info.Success())
}

func TestInitializeEpisode_GoalAheadOfCube(t *testing.T) {
	env, _ := newEnv(t, 8, environment.Options{})
	sc := env.Scene()
	cube := sc.Actor("cube").Positions()
	goal := sc.Actor("goal_region").Positions()
	for i := 0; i < 8; i++ {
		dx := goal.At(i, 0) - cube.At(i, 0)
		assert.GreaterOrEqual(t, dx, 0.15-1e-9)
		assert.LessOrEqual(t, math.Abs(goal.At(i, 1)-cube.At(i, 1)), 0.1+1e-9)
	}
}

func TestGoalRegionIsHiddenFromSensorsOnly(t *testing.T) {
	env, _ := newEnv(t, 1, environment.Options{ObsMode: "rgb"})
	goal := env.Scene().Actor("goal_region")

	// hidden while capturing, restored afterwards
	_, err := env.GetObs(nil)
	require.NoError(t, err)
	assert.False(t, goal.Hidden())
}

func TestDenseReward_RewardsReachingTheCube(t *testing.T) {
	env, task := newEnv(t, 1, environment.Options{})
	sc := env.Scene()
	tcp := env.Agent().TCP()

	place := func(x, y float64) float64 {
		sc.Actor("cube").SetPose(nil, physics.NewPose(
			[3]float64{x, y, 0.02}, [4]float64{1, 0, 0, 0}))
		sc.ApplyWrites()
		sc.FetchResults()
		return task.DenseReward(env, nil, task.Evaluate(env))[0]
	}

	near := place(tcp.At(0, 0)+0.03, tcp.At(0, 1))
	far := place(tcp.At(0, 0)+0.5, tcp.At(0, 1))
	assert.Greater(t, near, far)
}

func TestDenseReward_SaturatesAtSuccess(t *testing.T) {
	env, task := newEnv(t, 1, environment.Options{})
	sc := env.Scene()
	goal := sc.Actor("goal_region").PoseAt(0)

	sc.Actor("cube").SetPose(nil, physics.NewPose(
		[3]float64{goal.P[0], goal.P[1], 0.02}, [4]float64{1, 0, 0, 0}))
	sc.ApplyWrites()
	sc.FetchResults()

	info := task.Evaluate(env)
	require.Equal(t, []bool{true}, info.Success())
	assert.Equal(t, []float64{3}, task.DenseReward(env, nil, info))
	assert.Equal(t, []float64{1}, task.NormalizedDenseReward(env, nil, info))
}

func TestPlanarBackend_SingleReplicaOnly(t *testing.T) {
	seed := uint64(2022)
	_, err := environment.New(pushcube.New(), environment.Options{
		NumEnvs:     2,
		BackendName: "planar",
		Seed:        &seed,
	})
	assert.Error(t, err)
}

func TestPlanarBackend_RunsPushCube(t *testing.T) {
	seed := uint64(2022)
	env, err := environment.New(pushcube.New(), environment.Options{
		BackendName: "planar",
		Seed:        &seed,
	})
	require.NoError(t, err)
	defer env.Close()

	_, err = env.Step(nil)
	assert.NoError(t, err)
}
