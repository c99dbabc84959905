package environment

import "golang.org/x/exp/rand"

// defaultSeed seeds the main generator when the caller never supplies
// one
const defaultSeed uint64 = 2022

// seedMask keeps drawn episode seeds within 31 bits so they survive
// serialization as plain integers
const seedMask = 1<<31 - 1

// rngSequencer implements the two-level seeding discipline: a main
// generator fixed for the lifetime of the environment feeds per-reset
// episode generators, so a single construction seed reproduces an
// entire sequence of episodes while any individual episode can be
// replayed by passing its seed directly.
type rngSequencer struct {
	mainSeed    uint64
	main        *rand.Rand
	episodeSeed uint64
	episode     *rand.Rand
}

// setMain seeds the main generator. A nil seed is a no-op once a main
// generator exists; before that it falls back to the default seed.
func (r *rngSequencer) setMain(seed *uint64) {
	if seed == nil {
		if r.main != nil {
			return
		}
		s := defaultSeed
		seed = &s
	}
	r.mainSeed = *seed
	r.main = rand.New(rand.NewSource(*seed))
}

// setEpisode seeds the episode generator, drawing the next episode
// seed from the main generator when none is given, and returns the
// seed in effect.
func (r *rngSequencer) setEpisode(seed *uint64) uint64 {
	if seed == nil {
		if r.main == nil {
			r.setMain(nil)
		}
		s := r.main.Uint64() & seedMask
		seed = &s
	}
	r.episodeSeed = *seed
	r.episode = rand.New(rand.NewSource(*seed))
	return *seed
}

// reseedEpisode restores the episode generator to the start of its
// stream without consuming the main generator
func (r *rngSequencer) reseedEpisode() {
	r.episode = rand.New(rand.NewSource(r.episodeSeed))
}
