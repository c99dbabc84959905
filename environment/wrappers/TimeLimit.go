// Package wrappers layers optional behavior over an environment
// without touching the lifecycle core: episode time limits and
// trajectory recording.
package wrappers

import (
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/environment"
)

// Stepper is the surface shared by Env and every wrapper, so wrappers
// compose in any order
type Stepper interface {
	Reset(seed *uint64, opts *environment.ResetOptions) (environment.ObsDict,
		environment.Info, error)
	Step(action *environment.Action) (*environment.StepResult, error)
	ElapsedSteps() []int
	State() *mat.Dense
}

// TimeLimit truncates episodes after a fixed number of control steps.
// Truncation is reported per replica through the Truncated flags and
// never touches the task's terminated signal.
type TimeLimit struct {
	inner    Stepper
	maxSteps int
}

// NewTimeLimit wraps inner with a limit of maxSteps control steps per
// episode
func NewTimeLimit(inner Stepper, maxSteps int) *TimeLimit {
	return &TimeLimit{inner: inner, maxSteps: maxSteps}
}

// Reset forwards to the wrapped stepper
func (w *TimeLimit) Reset(seed *uint64,
	opts *environment.ResetOptions) (environment.ObsDict, environment.Info,
	error) {
	return w.inner.Reset(seed, opts)
}

// Step forwards to the wrapped stepper and raises Truncated on every
// replica whose episode has reached the step limit
func (w *TimeLimit) Step(action *environment.Action) (*environment.StepResult,
	error) {
	res, err := w.inner.Step(action)
	if err != nil {
		return nil, err
	}
	for i, steps := range w.inner.ElapsedSteps() {
		if steps >= w.maxSteps {
			res.Truncated[i] = true
		}
	}
	return res, nil
}

// ElapsedSteps forwards to the wrapped stepper
func (w *TimeLimit) ElapsedSteps() []int { return w.inner.ElapsedSteps() }

// State forwards to the wrapped stepper
func (w *TimeLimit) State() *mat.Dense { return w.inner.State() }
