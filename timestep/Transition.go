package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (state, action, reward, next state, terminal)
// tuple observed while interacting with an environment.
//
// Transitions are treated as immutable values. Whoever stores a
// Transition should store a Clone of it so that callers re-using their
// state vectors cannot alter stored experience.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	NextState *mat.VecDense
	Terminal  bool
}

// NewTransition returns a new Transition
func NewTransition(state *mat.VecDense, action int, reward float64,
	nextState *mat.VecDense, terminal bool) Transition {
	return Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
		Terminal:  terminal,
	}
}

// Clone returns a deep copy of the Transition
func (t Transition) Clone() Transition {
	return Transition{
		State:     cloneVec(t.State),
		Action:    t.Action,
		Reward:    t.Reward,
		NextState: cloneVec(t.NextState),
		Terminal:  t.Terminal,
	}
}

func (t Transition) String() string {
	str := "Transition | State: %v  |  Action: %v  |  Reward: %.2f  |  " +
		"Next State: %v  |  Terminal: %v"

	return fmt.Sprintf(str, rawData(t.State), t.Action, t.Reward,
		rawData(t.NextState), t.Terminal)
}

func cloneVec(v *mat.VecDense) *mat.VecDense {
	if v == nil {
		return nil
	}
	return mat.VecDenseCopyOf(v)
}

func rawData(v *mat.VecDense) []float64 {
	if v == nil {
		return nil
	}
	return v.RawVector().Data
}
