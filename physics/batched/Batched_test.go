package batched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/manipgym/manipgym/physics"
)

func testConfig() physics.SimConfig {
	cfg := physics.DefaultSimConfig()
	cfg.Gravity = [3]float64{}
	return cfg
}

func TestWritesAreStagedUntilApplyAndFetch(t *testing.T) {
	sys := New(testConfig())
	sys.SetTimestep(0.01)
	b, err := sys.AddBody(0, physics.BodyConfig{
		Name: "cube", Type: physics.Dynamic,
		InitialPose: physics.NewPose([3]float64{}, [4]float64{1, 0, 0, 0}),
	})
	require.NoError(t, err)

	b.SetPose(physics.NewPose([3]float64{1, 2, 3}, [4]float64{1, 0, 0, 0}))
	assert.Equal(t, [3]float64{}, b.Pose().P, "write visible before apply")

	sys.ApplyWrites()
	assert.Equal(t, [3]float64{}, b.Pose().P, "write visible before fetch")

	sys.FetchResults()
	assert.Equal(t, [3]float64{1, 2, 3}, b.Pose().P)
}

func TestStepResultsNeedFetch(t *testing.T) {
	sys := New(testConfig())
	sys.SetTimestep(0.01)
	b, err := sys.AddBody(0, physics.BodyConfig{
		Name: "cube", Type: physics.Dynamic,
		InitialPose: physics.NewPose([3]float64{}, [4]float64{1, 0, 0, 0}),
	})
	require.NoError(t, err)

	b.SetLinearVelocity([3]float64{1, 0, 0})
	sys.ApplyWrites()
	for i := 0; i < 10; i++ {
		sys.Step()
	}
	assert.Equal(t, [3]float64{}, b.Pose().P, "step visible before fetch")

	sys.FetchResults()
	assert.InDelta(t, 0.1, b.Pose().P[0], 1e-9)
}

func TestWritesFlushInQueueOrder(t *testing.T) {
	sys := New(testConfig())
	sys.SetTimestep(0.01)
	b, err := sys.AddBody(0, physics.BodyConfig{Name: "cube",
		Type: physics.Dynamic})
	require.NoError(t, err)

	b.SetPose(physics.NewPose([3]float64{1, 0, 0}, [4]float64{1, 0, 0, 0}))
	b.SetPose(physics.NewPose([3]float64{2, 0, 0}, [4]float64{1, 0, 0, 0}))
	sys.ApplyWrites()
	sys.FetchResults()
	assert.Equal(t, [3]float64{2, 0, 0}, b.Pose().P)
}

func TestBufferCapacityIsEnforced(t *testing.T) {
	cfg := testConfig()
	cfg.Buffers.MaxRigidBodies = 2
	cfg.Buffers.MaxArticulations = 1
	sys := New(cfg)

	for i := 0; i < 2; i++ {
		_, err := sys.AddBody(i, physics.BodyConfig{Name: "cube"})
		require.NoError(t, err)
	}
	_, err := sys.AddBody(2, physics.BodyConfig{Name: "cube"})
	assert.ErrorIs(t, err, physics.ErrBufferFull)

	joints := []physics.JointConfig{{
		Name: "x", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
		Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 100, Damping: 10,
		ForceLimit: 50,
	}}
	_, err = sys.AddArticulation(0, physics.ArticulationConfig{
		Name: "arm", Joints: joints})
	require.NoError(t, err)
	_, err = sys.AddArticulation(1, physics.ArticulationConfig{
		Name: "arm", Joints: joints})
	assert.ErrorIs(t, err, physics.ErrBufferFull)
}

func TestArticulationReadsComeFromSnapshot(t *testing.T) {
	cfg := testConfig()
	sys := New(cfg)
	sys.SetTimestep(0.01)
	a, err := sys.AddArticulation(0, physics.ArticulationConfig{
		Name: "arm",
		Joints: []physics.JointConfig{{
			Name: "x", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
			Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 100,
			Damping: 10, ForceLimit: 50,
		}},
	})
	require.NoError(t, err)

	a.SetQPos([]float64{0.5})
	assert.Equal(t, []float64{0}, a.QPos())

	sys.ApplyWrites()
	sys.FetchResults()
	assert.Equal(t, []float64{0.5}, a.QPos())
}
