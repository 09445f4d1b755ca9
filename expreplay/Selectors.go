package expreplay

import (
	"golang.org/x/exp/rand"
)

// Selector implements functionality for choosing which stored
// transitions should be sampled from an experience replay buffer
type Selector interface {
	// Choose selects n distinct indices in [0, size). Callers ensure
	// that 0 < n <= size.
	Choose(n, size int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement
type uniformSelector struct {
	rng *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly, without replacement, from an experience replay
// buffer. The selector draws all of its randomness from rng.
func NewUniformSelector(rng *rand.Rand) Selector {
	return &uniformSelector{rng: rng}
}

// Choose selects n distinct indices at which to draw data from the
// buffer. A partial Fisher-Yates shuffle is run over a virtual
// permutation of [0, size), storing only the displaced positions, so
// memory is proportional to n rather than size.
func (u *uniformSelector) Choose(n, size int) []int {
	displaced := make(map[int]int, n)
	at := func(i int) int {
		if v, ok := displaced[i]; ok {
			return v
		}
		return i
	}

	indices := make([]int, n)
	for i := 0; i < n; i++ {
		j := i + u.rng.Intn(size-i)
		indices[i] = at(j)
		displaced[j] = at(i)
	}

	return indices
}
