package physics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/physics/kinematic"
)

func newScene(t *testing.T, numEnvs int) *physics.Scene {
	t.Helper()
	cfg := physics.DefaultSimConfig()
	return physics.NewScene(kinematic.New(cfg), numEnvs, cfg)
}

func addCube(t *testing.T, sc *physics.Scene, name string) *physics.Actor {
	t.Helper()
	actor, err := sc.AddActor(physics.BodyConfig{
		Name: name, Type: physics.Dynamic, Shape: physics.Box,
		HalfSize: [3]float64{0.02, 0.02, 0.02}, Mass: 0.1,
		InitialPose: physics.NewPose([3]float64{0, 0, 0.02},
			[4]float64{1, 0, 0, 0}),
	})
	require.NoError(t, err)
	return actor
}

func addArm(t *testing.T, sc *physics.Scene, name string) *physics.Articulation {
	t.Helper()
	art, err := sc.AddArticulation(physics.ArticulationConfig{
		Name:     name,
		BasePose: physics.IdentityPose(),
		Joints: []physics.JointConfig{{
			Name: "x", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
			Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 100,
			Damping: 10, ForceLimit: 50,
		}},
	})
	require.NoError(t, err)
	return art
}

func TestAddActor_RejectsDuplicateNames(t *testing.T) {
	sc := newScene(t, 1)
	addCube(t, sc, "cube")
	_, err := sc.AddActor(physics.BodyConfig{Name: "cube"})
	assert.Error(t, err)
}

func TestAddArticulation_RejectsDuplicateNames(t *testing.T) {
	sc := newScene(t, 1)
	addArm(t, sc, "arm")
	_, err := sc.AddArticulation(physics.ArticulationConfig{Name: "arm"})
	assert.Error(t, err)
}

func TestEntityOrderIsRegistrationOrder(t *testing.T) {
	sc := newScene(t, 1)
	addCube(t, sc, "b")
	addCube(t, sc, "a")

	actors := sc.Actors()
	require.Len(t, actors, 2)
	assert.Equal(t, "b", actors[0].Name())
	assert.Equal(t, "a", actors[1].Name())
}

func TestState_RoundTrip(t *testing.T) {
	sc := newScene(t, 2)
	cube := addCube(t, sc, "cube")
	arm := addArm(t, sc, "arm")

	snapshot := sc.State().Clone()

	cube.SetPose(nil, physics.NewPose([3]float64{1, 1, 1},
		[4]float64{1, 0, 0, 0}))
	arm.SetQPos(nil, []float64{0.5})
	require.NoError(t, sc.SetState(nil, snapshot))

	assert.Equal(t, [3]float64{0, 0, 0.02}, cube.PoseAt(0).P)
	assert.Equal(t, 0.0, arm.QPos().At(0, 0))
}

func TestSetState_UnknownEntityFails(t *testing.T) {
	sc := newScene(t, 1)
	addCube(t, sc, "cube")
	st := sc.State()

	other := newScene(t, 1)
	addCube(t, other, "different")
	assert.Error(t, other.SetState(nil, st))
}

func TestSetState_HonorsReplicaMask(t *testing.T) {
	sc := newScene(t, 2)
	cube := addCube(t, sc, "cube")
	snapshot := sc.State().Clone()

	cube.SetPose(nil, physics.NewPose([3]float64{1, 1, 1},
		[4]float64{1, 0, 0, 0}))
	ctx := physics.NewResetContext(2, []int{0}, 0)
	require.NoError(t, sc.SetState(ctx, snapshot))

	assert.Equal(t, [3]float64{0, 0, 0.02}, cube.PoseAt(0).P)
	assert.Equal(t, [3]float64{1, 1, 1}, cube.PoseAt(1).P)
}

func TestClearVelocities_ZerosDynamicState(t *testing.T) {
	sc := newScene(t, 2)
	cube := addCube(t, sc, "cube")
	arm := addArm(t, sc, "arm")

	cube.SetLinearVelocity(nil, [3]float64{1, 2, 3})
	cube.SetAngularVelocity(nil, [3]float64{1, 0, 0})
	arm.SetQVel(nil, []float64{2})

	sc.ClearVelocities()
	for i := 0; i < 2; i++ {
		assert.Equal(t, 0.0, cube.LinearVelocities().At(i, 0))
		assert.Equal(t, 0.0, cube.AngularVelocities().At(i, 0))
		assert.Equal(t, 0.0, arm.QVel().At(i, 0))
	}
}
