package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/physics"
)

// ResetOptions refines a reset. The zero value resets every replica
// without rebuilding the scene.
type ResetOptions struct {
	// Reconfigure forces a full scene rebuild. Incompatible with a
	// partial EnvIdx.
	Reconfigure bool
	// EnvIdx restricts the reset to a subset of replicas. Nil resets
	// all of them.
	EnvIdx []int
}

// Reset starts new episodes on the selected replicas and returns the
// first observation of each.
//
// Seeding is two-level: a non-nil seed reseeds both the main generator
// and this episode's generator; a nil seed keeps the main generator
// and draws the next episode seed from it. The ordering below is the
// contract - reseed, maybe reconfigure, zero counters, clear residual
// velocities, reseed the episode stream again, restore the agents,
// then run the task's episode initialization in a scoped random
// context before observations are taken.
func (e *Env) Reset(seed *uint64, opts *ResetOptions) (ObsDict, Info, error) {
	if e.closed {
		return nil, nil, ErrClosed
	}
	if opts == nil {
		opts = &ResetOptions{}
	}

	e.rng.setMain(seed)
	episodeSeed := e.rng.setEpisode(seed)

	reconfigure := opts.Reconfigure ||
		(e.reconfigFreq != 0 && e.reconfigCounter == 0)
	if reconfigure && len(opts.EnvIdx) > 0 {
		return nil, nil, ErrPartialReconfigure
	}
	if reconfigure {
		if err := e.reconfigure(episodeSeed); err != nil {
			return nil, nil, err
		}
	}

	for _, i := range opts.EnvIdx {
		if i < 0 || i >= e.numEnvs {
			return nil, nil, fmt.Errorf("%w: env idx %d out of range [0, %d)",
				ErrConfiguration, i, e.numEnvs)
		}
	}
	ctx := physics.NewResetContext(e.numEnvs, opts.EnvIdx, episodeSeed)

	for _, i := range ctx.Indices() {
		e.elapsed[i] = 0
	}

	// Residual velocities are cleared across the whole batch: backends
	// operate on velocity buffers globally, so untouched replicas that
	// happen to be mid-episode keep only their poses.
	e.scene.ClearVelocities()
	if e.scene.Device() == physics.DeviceAccel {
		e.scene.ApplyWrites()
		e.scene.FetchResults()
	}

	if e.reconfigFreq != 0 {
		e.reconfigCounter--
	}

	// The episode generator restarts its stream so that episode
	// initialization consumes the same draws whether or not a
	// reconfiguration ran in between.
	e.rng.reseedEpisode()

	for _, a := range e.agents {
		a.Reset(ctx, nil)
	}

	if err := e.task.InitializeEpisode(e, ctx); err != nil {
		return nil, nil, fmt.Errorf("initialize episode: %w", err)
	}

	if e.scene.Device() == physics.DeviceAccel {
		e.scene.ApplyWrites()
		e.scene.FetchResults()
	}

	obs, err := e.GetObs(nil)
	if err != nil {
		return nil, nil, err
	}
	if e.obsMode == ObsState && e.obsDim == 0 {
		if flat, ok := obs["state"].(*mat.Dense); ok && flat != nil {
			_, e.obsDim = flat.Dims()
		}
	}
	return obs, Info{"reconfigure": reconfigure}, nil
}
