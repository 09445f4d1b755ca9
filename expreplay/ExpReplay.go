// Package expreplay implements a bounded experience replay buffer
package expreplay

import (
	"fmt"

	"github.com/gammazero/deque"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/minidqn/timestep"
)

// Config implements a specific configuration of a Buffer
type Config struct {
	Capacity int
}

// Validate returns an error describing whether or not the
// configuration is valid.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("validate: capacity must be >= 1\n\twant(>0)"+
			"\n\thave(%v)", c.Capacity)
	}
	return nil
}

// Create creates and returns the Buffer described by the Config. All
// sampling randomness is drawn from a generator seeded with seed.
func (c Config) Create(seed uint64) (*Buffer, error) {
	return New(c.Capacity, rand.New(rand.NewSource(seed)))
}

// Buffer implements a fixed capacity experience replay buffer.
// Transitions are evicted in first-in-first-out order once the buffer
// is full, so that the buffer holds a sliding window over the most
// recent experience. Batches are sampled uniformly at random without
// replacement.
//
// A Buffer is not safe for concurrent use. Each agent should own its
// Buffer exclusively.
type Buffer struct {
	transitions *deque.Deque[timestep.Transition]
	sampler     Selector

	capacity    int
	featureSize int // 0 until the first Add
}

// New creates and returns a new Buffer which holds at most capacity
// transitions. The rng parameter is the source of randomness used for
// sampling.
func New(capacity int, rng *rand.Rand) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1\n\twant(>0)"+
			"\n\thave(%v)", capacity)
	}
	if rng == nil {
		return nil, fmt.Errorf("new: rng must not be nil")
	}

	return NewWithSelector(capacity, NewUniformSelector(rng))
}

// NewWithSelector creates and returns a new Buffer which holds at most
// capacity transitions and uses s to choose which transitions are
// sampled
func NewWithSelector(capacity int, s Selector) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("newWithSelector: capacity must be >= 1"+
			"\n\twant(>0)\n\thave(%v)", capacity)
	}
	if s == nil {
		return nil, fmt.Errorf("newWithSelector: selector must not be nil")
	}

	return &Buffer{
		transitions: deque.New[timestep.Transition](),
		sampler:     s,
		capacity:    capacity,
	}, nil
}

// Add adds a transition to the buffer. If the buffer is at capacity,
// the oldest transition is removed before t is added. The buffer stores
// a copy of t.
//
// All transitions in a buffer must have states of the same length as
// the first transition added.
func (b *Buffer) Add(t timestep.Transition) error {
	if t.State == nil || t.NextState == nil {
		return fmt.Errorf("add: transition states must not be nil")
	}

	if b.featureSize == 0 {
		b.featureSize = t.State.Len()
	}
	if t.State.Len() != b.featureSize {
		return featureSizeError("add", b.featureSize, t.State.Len())
	}
	if t.NextState.Len() != b.featureSize {
		return featureSizeError("add", b.featureSize, t.NextState.Len())
	}

	if b.transitions.Len() >= b.capacity {
		b.transitions.PopFront()
	}
	b.transitions.PushBack(t.Clone())

	return nil
}

// Sample samples and returns a batch of n distinct transitions from the
// buffer, drawn uniformly at random without replacement. Sampling does
// not remove transitions from the buffer. The returned transitions are
// copies.
//
// Sample returns an *ExpReplayError if n is not positive or if n
// exceeds the number of transitions in the buffer.
func (b *Buffer) Sample(n int) ([]timestep.Transition, error) {
	if n < 1 {
		return nil, &ExpReplayError{Op: "sample", Err: errInvalidBatch}
	}
	if n > b.Len() {
		return nil, &ExpReplayError{
			Op:  "sample",
			Err: fmt.Errorf("%w (%v > %v)", errInsufficientSamples, n, b.Len()),
		}
	}

	indices := b.sampler.Choose(n, b.Len())
	batch := make([]timestep.Transition, n)
	for i, index := range indices {
		batch[i] = b.transitions.At(index).Clone()
	}

	return batch, nil
}

// At returns a copy of the transition at index i, where index 0 is the
// oldest transition in the buffer.
func (b *Buffer) At(i int) timestep.Transition {
	return b.transitions.At(i).Clone()
}

// Len returns the current number of transitions in the buffer
func (b *Buffer) Len() int {
	return b.transitions.Len()
}

// Capacity returns the maximum number of transitions allowed in the
// buffer
func (b *Buffer) Capacity() int {
	return b.capacity
}

// FeatureSize returns the length of the state vectors stored in the
// buffer, or 0 if nothing has been added yet
func (b *Buffer) FeatureSize() int {
	return b.featureSize
}

// Clear removes all transitions from the buffer
func (b *Buffer) Clear() {
	b.transitions.Clear()
	b.featureSize = 0
}

// String returns the string representation of the buffer
func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer | Length: %v  |  Capacity: %v", b.Len(),
		b.Capacity())
}
