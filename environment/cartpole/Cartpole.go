// Package cartpole implements the Cartpole classic control environment
// with discrete actions
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/minidqn/environment"
	ts "github.com/samuelfneumann/minidqn/timestep"
	"github.com/samuelfneumann/minidqn/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 2.4
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	// ObservationDims is the number of state features
	ObservationDims int = 4
)

// Task determines the starting states, rewards and episode termination
// of a Cartpole environment
type Task interface {
	env.Starter
	env.Ender
	GetReward(state, nextState mat.Vector, action int) float64
}

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally. The agent must keep the pole upright for as long as
// possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. The position is clipped to
// the position bounds and the angle is normalized to (-π, π].
//
// Actions are discrete and consist of the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
//
// Illegal actions cause the environment to panic.
//
// Cartpole implements the environment.Environment interface
type Cartpole struct {
	Task
	lastStep              ts.TimeStep
	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// New constructs a new Cartpole environment
func New(t Task) (*Cartpole, error) {
	c := &Cartpole{
		Task:           t,
		positionBounds: r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		speedBounds:    r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds:    r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds,
			Max: AngularVelocityBounds},
	}

	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cartpole) reset() error {
	state := c.Start()
	if err := c.validateState(state); err != nil {
		return err
	}

	c.lastStep = ts.New(ts.First, 0, state, 0)
	return nil
}

// Reset resets the environment and returns a starting state drawn from
// the Task. Reset panics if the Task produces an illegal start state.
func (c *Cartpole) Reset() *mat.VecDense {
	if err := c.reset(); err != nil {
		panic(err)
	}
	return mat.VecDenseCopyOf(c.lastStep.Observation)
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(MaxDiscreteAction + 1)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, lower)

	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, upper)

	return env.NewSpec(shape, env.Observation, lowerBound,
		upperBound, env.Continuous)
}

// Step takes one environmental step given an action in {0, 1, 2}
func (c *Cartpole) Step(action int) (*mat.VecDense, float64, bool) {
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		panic(fmt.Sprintf("step: illegal action %v ∉ (0, 1, 2)", action))
	}

	// Convert action (0, 1, 2) to a direction (-1, 0, 1)
	direction := float64(action - 1)
	nextState := c.nextState(direction)

	reward := c.GetReward(c.lastStep.Observation, nextState, action)
	nextStep := ts.New(ts.Mid, reward, nextState, c.lastStep.Number+1)

	// Check if the step ends the episode
	c.End(&nextStep)

	c.lastStep = nextStep
	return mat.VecDenseCopyOf(nextState), reward, nextStep.Last()
}

// nextState computes the state following the current one when force is
// applied in the given direction, using Euler integration
func (c *Cartpole) nextState(direction float64) *mat.VecDense {
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := direction * ForceMag

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	x += Dt * xDot
	x = floatutils.ClipInterval(x, c.positionBounds)

	// The cart stops when it hits a wall
	if x == c.positionBounds.Min || x == c.positionBounds.Max {
		xDot = 0
	} else {
		xDot += Dt * xAcc
	}

	th += Dt * thDot
	th = normalizeAngle(th, c.angleBounds)

	thDot += Dt * thAcc

	return mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot})
}

// IsDone returns whether the current episode has ended
func (c *Cartpole) IsDone() bool {
	return c.lastStep.Last()
}

// validateState ensures that a state observation is within the
// physical bounds of the environment
func (c *Cartpole) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("validateState: invalid number of features"+
			"\n\twant(%v)\n\thave(%v)", ObservationDims, obs.Len())
	}

	bounds := []r1.Interval{c.positionBounds, c.speedBounds, c.angleBounds,
		c.angularVelocityBounds}
	names := []string{"position", "speed", "angle", "angular velocity"}
	for i, b := range bounds {
		if obs.AtVec(i) < b.Min || obs.AtVec(i) > b.Max {
			return fmt.Errorf("validateState: %v %v is not within bounds %v",
				names[i], obs.AtVec(i), b)
		}
	}
	return nil
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

// normalizeAngle wraps the pole angle into the angle bounds, which
// must be centred on 0
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	width := angleBounds.Max - angleBounds.Min
	for th > angleBounds.Max {
		th -= width
	}
	for th <= angleBounds.Min {
		th += width
	}
	return th
}
