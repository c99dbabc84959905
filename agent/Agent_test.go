package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/agent"
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/physics/kinematic"
)

func newScene(numEnvs int) *physics.Scene {
	cfg := physics.DefaultSimConfig()
	return physics.NewScene(kinematic.New(cfg), numEnvs, cfg)
}

func TestNew_UnknownRobotFails(t *testing.T) {
	_, err := agent.New(newScene(1), "missing_robot", "")
	assert.ErrorIs(t, err, agent.ErrUnknownRobot)
}

func TestNew_DefaultControlMode(t *testing.T) {
	a, err := agent.New(newScene(1), "floating_gripper", "")
	require.NoError(t, err)
	assert.Equal(t, "pd_joint_delta_pos", a.ControlMode())
}

func TestNew_UnknownControlModeFails(t *testing.T) {
	_, err := agent.New(newScene(1), "floating_gripper", "bogus")
	assert.ErrorIs(t, err, agent.ErrUnknownController)
}

func TestSetControlMode_SwitchesController(t *testing.T) {
	a, err := agent.New(newScene(1), "floating_gripper", "")
	require.NoError(t, err)

	require.NoError(t, a.SetControlMode("pd_joint_vel"))
	assert.Equal(t, "pd_joint_vel", a.ControlMode())

	err = a.SetControlMode("bogus")
	assert.ErrorIs(t, err, agent.ErrUnknownController)
	assert.Equal(t, "pd_joint_vel", a.ControlMode())
}

func TestSetAction_ValidatesShape(t *testing.T) {
	a, err := agent.New(newScene(2), "floating_gripper", "")
	require.NoError(t, err)

	assert.ErrorIs(t, a.SetAction(mat.NewDense(2, 3, nil)),
		agent.ErrInvalidActionShape)
	assert.ErrorIs(t, a.SetAction(mat.NewDense(1, 4, nil)),
		agent.ErrInvalidActionShape)
	assert.NoError(t, a.SetAction(mat.NewDense(2, 4, nil)))
}

func TestActionSpace_DeltaBounds(t *testing.T) {
	a, err := agent.New(newScene(1), "floating_gripper", "pd_joint_delta_pos")
	require.NoError(t, err)

	space := a.ActionSpace()
	assert.Equal(t, []int{4}, space.Shape)
	for i := 0; i < space.Dim(); i++ {
		assert.Equal(t, -0.1, space.LowerBound.AtVec(i))
		assert.Equal(t, 0.1, space.UpperBound.AtVec(i))
	}
}

func TestActionSpace_AbsoluteBoundsFollowJointLimits(t *testing.T) {
	a, err := agent.New(newScene(1), "floating_gripper", "pd_joint_pos")
	require.NoError(t, err)

	space := a.ActionSpace()
	assert.Equal(t, -1.0, space.LowerBound.AtVec(0))
	assert.Equal(t, 1.0, space.UpperBound.AtVec(0))
	assert.Equal(t, 0.0, space.LowerBound.AtVec(3)) // gripper joint
	assert.Equal(t, 0.04, space.UpperBound.AtVec(3))
}

func TestReset_RestoresDefaultConfiguration(t *testing.T) {
	sc := newScene(2)
	a, err := agent.New(sc, "floating_gripper", "")
	require.NoError(t, err)

	art := a.Robot()
	art.SetQPos(nil, []float64{0.5, 0.5, 0.9, 0})
	art.SetQVel(nil, []float64{1, 1, 1, 1})

	a.Reset(nil, nil)
	qpos := art.QPos()
	qvel := art.QVel()
	for i := 0; i < 2; i++ {
		assert.Equal(t, []float64{0, 0, 0.3, 0.04}, qpos.RawRowView(i))
		assert.Equal(t, []float64{0, 0, 0, 0}, qvel.RawRowView(i))
	}
}

func TestReset_HonorsReplicaMask(t *testing.T) {
	sc := newScene(2)
	a, err := agent.New(sc, "floating_gripper", "")
	require.NoError(t, err)

	art := a.Robot()
	art.SetQPos(nil, []float64{0.5, 0.5, 0.9, 0})

	a.Reset(physics.NewResetContext(2, []int{1}, 0), nil)
	qpos := art.QPos()
	assert.Equal(t, []float64{0.5, 0.5, 0.9, 0}, qpos.RawRowView(0))
	assert.Equal(t, []float64{0, 0, 0.3, 0.04}, qpos.RawRowView(1))
}

func TestTCP_OffsetsRootByPrismaticJoints(t *testing.T) {
	sc := newScene(1)
	a, err := agent.New(sc, "floating_gripper", "")
	require.NoError(t, err)

	a.Reset(nil, []float64{0.1, -0.2, 0.3, 0.04})
	tcp := a.TCP()
	assert.InDelta(t, 0.1, tcp.At(0, 0), 1e-12)
	assert.InDelta(t, -0.2, tcp.At(0, 1), 1e-12)
	assert.InDelta(t, 0.3, tcp.At(0, 2), 1e-12)
}

func TestProprioception_BatchedShapes(t *testing.T) {
	sc := newScene(3)
	a, err := agent.New(sc, "floating_gripper", "")
	require.NoError(t, err)

	p := a.Proprioception()
	r, c := p["qpos"].Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, c)
	r, c = p["qvel"].Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, c)
}
