package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/minidqn/environment"
	ts "github.com/samuelfneumann/minidqn/timestep"
)

const (
	// FailAngle is the default angle from vertical past which the pole
	// is considered fallen
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// StartBound is the default bound (+/-) on each starting feature
	StartBound float64 = 0.05
)

// Balance implements the classic control Cartpole Balance task. In this
// Task, the goal of the agent is to balance the pole on the cart in
// an upright position for as long as possible.
//
// The rewards are +1 for every timestep and -1 when the pole has fallen
// below some set angle threshold θ.
//
// Episodes end after a step limit, when the pole has fallen below the
// angle threshold θ, or when the cart leaves the track.
type Balance struct {
	env.Starter
	enders    []env.Ender
	failAngle float64
}

// NewBalance creates and returns a new Balance task. If episodeSteps is
// not positive, episodes are only ended by the pole falling or the cart
// leaving the track.
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	limits := []r1.Interval{
		{Min: -PositionBounds, Max: PositionBounds},
		{Min: -failAngle, Max: failAngle},
	}
	enders := []env.Ender{env.NewIntervalLimit(limits, []int{0, 2})}

	if episodeSteps > 0 {
		enders = append(enders, env.NewStepLimit(episodeSteps))
	}

	return &Balance{s, enders, failAngle}
}

// NewDefaultBalance returns a Balance task whose starting states are
// drawn uniformly from [-StartBound, StartBound] in every feature
func NewDefaultBalance(episodeSteps int, seed uint64) *Balance {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}

	return NewBalance(env.NewUniformStarter(bounds, seed), episodeSteps,
		FailAngle)
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (b *Balance) End(t *ts.TimeStep) bool {
	for _, ender := range b.enders {
		if ender.End(t) {
			return true
		}
	}
	return false
}

// GetReward returns the reward for a transition to nextState
func (b *Balance) GetReward(_, nextState mat.Vector, _ int) float64 {
	angle := math.Abs(nextState.AtVec(2))

	// Angle of 0 is pointing straight up
	if angle < b.failAngle {
		return 1.0
	}
	return -1.0
}
