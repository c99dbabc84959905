// Package agent wraps a loaded robot articulation together with a
// selected controller, exposing action-space metadata and the
// apply-action contract used by the environment lifecycle layer.
package agent

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
)

var (
	// ErrUnknownRobot is returned when a robot uid is not registered
	ErrUnknownRobot = errors.New("agent: unknown robot uid")

	// ErrUnknownController is returned when switching to a controller
	// name the robot does not register
	ErrUnknownController = errors.New("agent: unknown controller")

	// ErrInvalidActionShape is returned when an action does not match
	// the active controller's expected input shape
	ErrInvalidActionShape = errors.New("agent: invalid action shape")
)

// Robot is a pure data descriptor of a robot: its articulation, its
// canonical joint configuration, and the controllers it registers
type Robot struct {
	UID               string
	Articulation      physics.ArticulationConfig
	DefaultQPos       []float64
	Controllers       map[string]ControllerConfig
	DefaultController string
	SensorConfigs     []sensor.CameraConfig
}

var registry = map[string]Robot{}

// Register adds a robot descriptor to the global registry, replacing
// any previous descriptor with the same uid
func Register(r Robot) {
	registry[r.UID] = r
}

// Lookup returns the robot registered under uid
func Lookup(uid string) (Robot, error) {
	r, ok := registry[uid]
	if !ok {
		return Robot{}, fmt.Errorf("%w: %q", ErrUnknownRobot, uid)
	}
	return r, nil
}

func init() {
	Register(floatingGripper())
	Register(pusher())
}

// floatingGripper is a 4-dof end effector: three prismatic joints
// positioning the tool center point plus one gripper width joint
func floatingGripper() Robot {
	joints := []physics.JointConfig{
		{Name: "root_x", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
			Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 400, Damping: 40,
			ForceLimit: 100},
		{Name: "root_y", Kind: physics.Prismatic, Axis: [3]float64{0, 1, 0},
			Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 400, Damping: 40,
			ForceLimit: 100},
		{Name: "root_z", Kind: physics.Prismatic, Axis: [3]float64{0, 0, 1},
			Limits: r1.Interval{Min: 0, Max: 1}, Stiffness: 400, Damping: 40,
			ForceLimit: 100},
		{Name: "gripper", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
			Limits: r1.Interval{Min: 0, Max: 0.04}, Stiffness: 200, Damping: 20,
			ForceLimit: 50},
	}
	return Robot{
		UID: "floating_gripper",
		Articulation: physics.ArticulationConfig{
			Name:      "floating_gripper",
			BasePose:  physics.IdentityPose(),
			Joints:    joints,
			Color:     [4]float64{0.8, 0.8, 0.8, 1},
			TCPJoints: []int{0, 1, 2},
		},
		DefaultQPos: []float64{0, 0, 0.3, 0.04},
		Controllers: map[string]ControllerConfig{
			"pd_joint_pos":       {Kind: PDJointPos},
			"pd_joint_delta_pos": {Kind: PDJointDeltaPos, DeltaBound: 0.1},
			"pd_joint_vel":       {Kind: PDJointVel, VelBound: 1.0},
		},
		DefaultController: "pd_joint_delta_pos",
		SensorConfigs: []sensor.CameraConfig{
			{
				Name: "hand_camera", Width: 128, Height: 128,
				Pose: physics.NewPose([3]float64{0, 0, 0.1}, [4]float64{}),
				FovY: 1.57, Near: 0.01, Far: 10,
				Mount: "floating_gripper",
			},
		},
	}
}

// pusher is a 2-dof planar end effector for tabletop pushing tasks
func pusher() Robot {
	joints := []physics.JointConfig{
		{Name: "root_x", Kind: physics.Prismatic, Axis: [3]float64{1, 0, 0},
			Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 300, Damping: 30,
			ForceLimit: 80},
		{Name: "root_y", Kind: physics.Prismatic, Axis: [3]float64{0, 1, 0},
			Limits: r1.Interval{Min: -1, Max: 1}, Stiffness: 300, Damping: 30,
			ForceLimit: 80},
	}
	return Robot{
		UID: "pusher",
		Articulation: physics.ArticulationConfig{
			Name:      "pusher",
			BasePose:  physics.IdentityPose(),
			Joints:    joints,
			Color:     [4]float64{0.2, 0.2, 0.9, 1},
			TCPJoints: []int{0, 1},
		},
		DefaultQPos: []float64{0, 0},
		Controllers: map[string]ControllerConfig{
			"pd_joint_pos":       {Kind: PDJointPos},
			"pd_joint_delta_pos": {Kind: PDJointDeltaPos, DeltaBound: 0.05},
			"pd_joint_vel":       {Kind: PDJointVel, VelBound: 0.5},
		},
		DefaultController: "pd_joint_delta_pos",
	}
}
