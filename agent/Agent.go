package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
	"github.com/manipgym/manipgym/spec"
)

// Agent owns one robot articulation and one active controller chosen
// from the robot's controller registry. It is constructed during
// reconfiguration, destroyed with the scene, and persists across
// resets that do not reconfigure.
type Agent struct {
	uid         string
	robot       Robot
	art         *physics.Articulation
	controllers map[string]Controller
	controlMode string
	controller  Controller
}

// New loads the robot registered under uid into the scene and selects
// controlMode (or the robot's default when controlMode is empty)
func New(sc *physics.Scene, uid, controlMode string) (*Agent, error) {
	robot, err := Lookup(uid)
	if err != nil {
		return nil, err
	}
	art, err := sc.AddArticulation(robot.Articulation)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", uid, err)
	}
	controllers := make(map[string]Controller, len(robot.Controllers))
	for name, cfg := range robot.Controllers {
		controllers[name] = newController(art, cfg)
	}
	a := &Agent{
		uid:         uid,
		robot:       robot,
		art:         art,
		controllers: controllers,
	}
	if controlMode == "" {
		controlMode = robot.DefaultController
	}
	if err := a.SetControlMode(controlMode); err != nil {
		return nil, err
	}
	return a, nil
}

// UID returns the robot uid the agent was built from
func (a *Agent) UID() string { return a.uid }

// Robot returns the articulation controlled by the agent
func (a *Agent) Robot() *physics.Articulation { return a.art }

// SensorConfigs returns the robot's mounted sensor descriptors
func (a *Agent) SensorConfigs() []sensor.CameraConfig {
	return a.robot.SensorConfigs
}

// ControlMode returns the name of the active controller
func (a *Agent) ControlMode() string { return a.controlMode }

// SetControlMode switches the active controller. Switching to an
// unregistered name fails with ErrUnknownController.
func (a *Agent) SetControlMode(name string) error {
	c, ok := a.controllers[name]
	if !ok {
		return fmt.Errorf("%w: robot %q has no controller %q",
			ErrUnknownController, a.uid, name)
	}
	a.controlMode = name
	a.controller = c
	return nil
}

// Controller returns the active controller
func (a *Agent) Controller() Controller { return a.controller }

// ActionSpace returns the single-replica action layout of the active
// controller
func (a *Agent) ActionSpace() spec.Space { return a.controller.ActionSpace() }

// SetAction validates the batched action against the active
// controller and queues the resulting joint targets for the next
// physics sub-steps
func (a *Agent) SetAction(action *mat.Dense) error {
	return a.controller.SetAction(action)
}

// BeforeSimStep is called before every physics sub-step so the active
// controller can interpolate or hold its targets
func (a *Agent) BeforeSimStep(substep, total int) {
	a.controller.BeforeSimStep(substep, total)
}

// Reset restores the canonical joint configuration (or qpos when
// non-nil), zeros joint velocities, and resets controller state on
// the replicas selected by ctx
func (a *Agent) Reset(ctx *physics.ResetContext, qpos []float64) {
	if qpos == nil {
		qpos = a.robot.DefaultQPos
	}
	a.art.SetQPos(ctx, qpos)
	a.art.SetQVel(ctx, make([]float64, a.art.Dof()))
	for _, c := range a.controllers {
		c.Reset(ctx)
	}
}

// Proprioception returns the agent's proprioceptive observation:
// batched joint positions and velocities
func (a *Agent) Proprioception() map[string]*mat.Dense {
	return map[string]*mat.Dense{
		"qpos": a.art.QPos(),
		"qvel": a.art.QVel(),
	}
}

// TCP returns the batched N x 3 tool-center-point positions. For
// robots whose TCP joints are prismatic x/y/z, the TCP is the root
// position offset by those joint positions.
func (a *Agent) TCP() *mat.Dense {
	n := a.art.NumReplicas()
	out := mat.NewDense(n, 3, nil)
	qpos := a.art.QPos()
	tcp := a.art.Config().TCPJoints
	for i := 0; i < n; i++ {
		p := a.art.RootPoseAt(i).P
		row := []float64{p[0], p[1], p[2]}
		for k, jointIdx := range tcp {
			if k < 3 {
				row[k] += qpos.At(i, jointIdx)
			}
		}
		out.SetRow(i, row)
	}
	return out
}
