// Package drift implements a toy environment in which every action
// pushes all state features upward by a fixed amount
package drift

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/minidqn/environment"
	ts "github.com/samuelfneumann/minidqn/timestep"
)

const (
	// Rate is the amount each feature moves per unit of action
	Rate float64 = 0.01

	// Threshold is the feature value which, once exceeded by any
	// feature, ends the episode
	Threshold float64 = 1.0

	// RewardAction is the only action that is rewarded
	RewardAction int = 1
)

// Drift implements a minimal environment for exercising agents. Each
// episode starts at the origin. Taking action a adds a*Rate to every
// feature of the state. The reward is 1 if a == RewardAction and 0
// otherwise. An episode ends once any feature exceeds Threshold, or
// when an optional step limit is reached.
//
// Since action 0 leaves the state unchanged, a greedy agent may never
// reach the threshold, so a step limit should be used outside of
// tests.
//
// Drift implements the environment.Environment interface
type Drift struct {
	starter    env.Starter
	enders     []env.Ender
	numActions int
	lastStep   ts.TimeStep
}

// New returns a new Drift environment with the given state and action
// dimensions. If episodeSteps > 0, episodes are cut off after that many
// steps.
func New(features, numActions, episodeSteps int) (*Drift, error) {
	if features < 1 {
		return nil, fmt.Errorf("new: features must be positive\n\twant(>0)"+
			"\n\thave(%v)", features)
	}
	if numActions < 1 {
		return nil, fmt.Errorf("new: number of actions must be positive"+
			"\n\twant(>0)\n\thave(%v)", numActions)
	}

	enders := []env.Ender{env.NewFunctionEnder(env.AnyAbove(Threshold))}
	if episodeSteps > 0 {
		enders = append(enders, env.NewStepLimit(episodeSteps))
	}

	d := &Drift{
		starter:    env.NewZeroStarter(features),
		enders:     enders,
		numActions: numActions,
	}
	d.Reset()

	return d, nil
}

// Reset resets the environment to the origin and returns the starting
// state
func (d *Drift) Reset() *mat.VecDense {
	state := d.starter.Start()
	d.lastStep = ts.New(ts.First, 0, state, 0)

	return mat.VecDenseCopyOf(state)
}

// Step takes one environmental step given an action
func (d *Drift) Step(action int) (*mat.VecDense, float64, bool) {
	if action < 0 || action >= d.numActions {
		panic(fmt.Sprintf("step: illegal action %v ∉ [0, %v)", action,
			d.numActions))
	}

	next := mat.VecDenseCopyOf(d.lastStep.Observation)
	for i := 0; i < next.Len(); i++ {
		next.SetVec(i, next.AtVec(i)+float64(action)*Rate)
	}

	var reward float64
	if action == RewardAction {
		reward = 1.0
	}

	step := ts.New(ts.Mid, reward, next, d.lastStep.Number+1)
	for _, ender := range d.enders {
		if ender.End(&step) {
			break
		}
	}
	d.lastStep = step

	return mat.VecDenseCopyOf(next), reward, step.Last()
}

// IsDone returns whether the current episode has ended
func (d *Drift) IsDone() bool {
	return d.lastStep.Last()
}

// LastTimeStep returns the most recent TimeStep of the environment
func (d *Drift) LastTimeStep() ts.TimeStep {
	return d.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (d *Drift) ObservationSpec() env.Spec {
	features := d.lastStep.Observation.Len()
	shape := mat.NewVecDense(features, nil)
	lowerBound := mat.NewVecDense(features, nil)

	upper := make([]float64, features)
	for i := range upper {
		upper[i] = Threshold + float64(d.numActions-1)*Rate
	}
	upperBound := mat.NewVecDense(features, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (d *Drift) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(d.numActions)
}

func (d *Drift) String() string {
	return fmt.Sprintf("Drift | Step: %v | State: %v", d.lastStep.Number,
		mat.Formatted(d.lastStep.Observation.T()))
}
