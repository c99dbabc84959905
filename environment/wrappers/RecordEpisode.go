package wrappers

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/environment"
)

// stepRecord is one line of a recorded trajectory
type stepRecord struct {
	Episode    string      `json:"episode"`
	Step       int         `json:"step"`
	State      [][]float64 `json:"state"`
	Action     [][]float64 `json:"action,omitempty"`
	Reward     []float64   `json:"reward,omitempty"`
	Terminated []bool      `json:"terminated,omitempty"`
	Truncated  []bool      `json:"truncated,omitempty"`
	Success    []bool      `json:"success,omitempty"`
}

// RecordEpisode logs full simulation state trajectories as JSON lines.
// Each reset starts a new episode id; each step appends the flattened
// state batch with the action and outcome, so any recorded step can be
// restored later through Env.SetState.
type RecordEpisode struct {
	inner   Stepper
	enc     *json.Encoder
	episode string
	step    int
}

// NewRecordEpisode wraps inner, writing one JSON line per reset and
// step to w
func NewRecordEpisode(inner Stepper, w io.Writer) *RecordEpisode {
	return &RecordEpisode{inner: inner, enc: json.NewEncoder(w)}
}

// Reset starts a new recorded episode and logs its initial state
func (r *RecordEpisode) Reset(seed *uint64,
	opts *environment.ResetOptions) (environment.ObsDict, environment.Info,
	error) {
	obs, info, err := r.inner.Reset(seed, opts)
	if err != nil {
		return nil, nil, err
	}
	r.episode = uuid.NewString()
	r.step = 0
	rec := stepRecord{
		Episode: r.episode,
		State:   denseRows(r.inner.State()),
	}
	if encErr := r.enc.Encode(rec); encErr != nil {
		return nil, nil, encErr
	}
	return obs, info, nil
}

// Step forwards to the wrapped environment and logs the resulting
// state and outcome
func (r *RecordEpisode) Step(action *environment.Action) (*environment.StepResult,
	error) {
	res, err := r.inner.Step(action)
	if err != nil {
		return nil, err
	}
	r.step++
	rec := stepRecord{
		Episode:    r.episode,
		Step:       r.step,
		State:      denseRows(r.inner.State()),
		Reward:     res.Reward,
		Terminated: res.Terminated,
		Truncated:  res.Truncated,
		Success:    res.Info.Success(),
	}
	if action != nil && action.Values != nil {
		rec.Action = denseRows(action.Values)
	}
	if encErr := r.enc.Encode(rec); encErr != nil {
		return nil, encErr
	}
	return res, nil
}

// ElapsedSteps forwards to the wrapped stepper
func (r *RecordEpisode) ElapsedSteps() []int { return r.inner.ElapsedSteps() }

// State forwards to the wrapped stepper
func (r *RecordEpisode) State() *mat.Dense { return r.inner.State() }

func denseRows(m interface {
	Dims() (int, int)
	At(int, int) float64
}) [][]float64 {
	rows, cols := m.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
