package physics

import "golang.org/x/exp/rand"

// ResetContext carries the per-reset replica mask and episode
// randomness through initialization calls. It is created for one reset
// call and discarded afterwards; state-mutating methods take it as an
// argument instead of consulting shared mutable state, so there is no
// mask to restore when the call returns. A nil ResetContext means all
// replicas are affected.
type ResetContext struct {
	// Mask selects which replicas state-mutating calls affect
	Mask []bool
	// Seed is the episode seed the context was created from
	Seed uint64
	// Rand is a generator seeded from Seed for scene randomization
	Rand *rand.Rand
}

// AllActive returns a context affecting every one of n replicas
func AllActive(n int) *ResetContext {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return &ResetContext{Mask: mask}
}

// NewResetContext returns a context restricted to the replicas in idx,
// carrying a generator seeded with seed
func NewResetContext(n int, idx []int, seed uint64) *ResetContext {
	mask := make([]bool, n)
	if idx == nil {
		for i := range mask {
			mask[i] = true
		}
	} else {
		for _, i := range idx {
			mask[i] = true
		}
	}
	return &ResetContext{
		Mask: mask,
		Seed: seed,
		Rand: rand.New(rand.NewSource(seed)),
	}
}

// Active returns whether replica i is affected by this context
func (c *ResetContext) Active(i int) bool {
	if c == nil {
		return true
	}
	return c.Mask[i]
}

// Indices returns the affected replica indices in increasing order
func (c *ResetContext) Indices() []int {
	var idx []int
	for i, on := range c.Mask {
		if on {
			idx = append(idx, i)
		}
	}
	return idx
}

// Partial returns whether the context excludes at least one replica
func (c *ResetContext) Partial() bool {
	if c == nil {
		return false
	}
	for _, on := range c.Mask {
		if !on {
			return true
		}
	}
	return false
}
