package environment

import (
	"fmt"

	"github.com/manipgym/manipgym/agent"
	"github.com/manipgym/manipgym/physics"
)

// StepResult is the batched outcome of one control step
type StepResult struct {
	Obs        ObsDict
	Reward     []float64
	Terminated []bool
	// Truncated is always all false; time limits are a wrapper concern
	Truncated []bool
	Info      Info
}

// Step advances every replica by one control step: the action is
// dispatched to the agents, the physics runs SimStepsPerControl
// sub-steps with controller interpolation before each, and info,
// observation, and reward are computed in that order. Termination is
// success or failure from the task evaluation; replicas that
// terminate keep simulating until the caller resets them.
func (e *Env) Step(action *Action) (*StepResult, error) {
	if e.closed {
		return nil, ErrClosed
	}

	if err := e.dispatchAction(action); err != nil {
		return nil, err
	}
	for i := range e.elapsed {
		e.elapsed[i]++
	}

	hooks, _ := e.task.(ControlHooks)
	if hooks != nil {
		hooks.BeforeControlStep(e)
	}
	if e.scene.Device() == physics.DeviceAccel {
		e.scene.ApplyWrites()
	}
	for k := 0; k < e.simStepsPerControl; k++ {
		for _, a := range e.agents {
			a.BeforeSimStep(k, e.simStepsPerControl)
		}
		e.scene.Step()
	}
	// One fetch for the whole control step. Everything downstream
	// (evaluation, observation, reward) reads the same snapshot.
	if e.scene.Device() == physics.DeviceAccel {
		e.scene.FetchResults()
	}
	if hooks != nil {
		hooks.AfterControlStep(e)
	}

	info := e.getInfo()
	obs, err := e.GetObs(info)
	if err != nil {
		return nil, err
	}
	reward := e.rewardFn(obs, action, info)

	terminated := make([]bool, e.numEnvs)
	success, fail := info.Success(), info.Fail()
	for i := range terminated {
		terminated[i] = (success != nil && success[i]) ||
			(fail != nil && fail[i])
	}

	return &StepResult{
		Obs:        obs,
		Reward:     reward,
		Terminated: terminated,
		Truncated:  make([]bool, e.numEnvs),
		Info:       info,
	}, nil
}

// dispatchAction routes an action to the agents. A nil action leaves
// the previous drive targets in place.
func (e *Env) dispatchAction(action *Action) error {
	if action == nil {
		return nil
	}
	if action.PerAgent != nil {
		for uid, values := range action.PerAgent {
			a := e.agentByUID[uid]
			if a == nil {
				return fmt.Errorf("%w: no agent with uid %q",
					agent.ErrUnknownRobot, uid)
			}
			if err := a.SetAction(values); err != nil {
				return err
			}
		}
		return nil
	}
	a := e.Agent()
	if action.ControlMode != "" && action.ControlMode != a.ControlMode() {
		if err := a.SetControlMode(action.ControlMode); err != nil {
			return err
		}
		a.Controller().Reset(nil)
	}
	if action.Values == nil {
		return nil
	}
	return a.SetAction(action.Values)
}

// getInfo merges the step bookkeeping with the task's evaluation
func (e *Env) getInfo() Info {
	info := Info{"elapsed_steps": e.ElapsedSteps()}
	for k, v := range e.task.Evaluate(e) {
		info[k] = v
	}
	return info
}
