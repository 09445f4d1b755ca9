// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end. If End returns true, it
// must also set the StepType of the argument TimeStep to timestep.Last.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment with discrete actions.
// Actions are enumerated as integers in [0, ActionSpec().NumActions()).
//
// Observations returned by Reset and Step always have the same length
// for a given Environment. Passing an illegal action to Step is a
// programming error and causes a panic.
type Environment interface {
	// Reset starts a new episode and returns the first observation
	Reset() *mat.VecDense

	// Step takes an action in the environment and returns the next
	// observation, the reward for the transition and whether or not
	// the episode has ended
	Step(action int) (*mat.VecDense, float64, bool)

	// IsDone returns whether the current episode has ended
	IsDone() bool

	ObservationSpec() Spec
	ActionSpec() Spec
}
