package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/timestep"
)

// FunctionEnder ends an episode whenever a function of the observation
// returns true
type FunctionEnder struct {
	end func(*mat.VecDense) bool
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes when
// f returns true
func NewFunctionEnder(f func(*mat.VecDense) bool) *FunctionEnder {
	return &FunctionEnder{f}
}

// End determines whether or not the current episode should be ended.
// If so, End sets the StepType of t to timestep.Last.
func (f *FunctionEnder) End(t *timestep.TimeStep) bool {
	if f.end(t.Observation) {
		t.StepType = timestep.Last
		return true
	}
	return false
}

// AnyAbove returns a function that reports whether any element of a
// vector is strictly greater than threshold
func AnyAbove(threshold float64) func(*mat.VecDense) bool {
	return func(v *mat.VecDense) bool {
		for i := 0; i < v.Len(); i++ {
			if v.AtVec(i) > threshold {
				return true
			}
		}
		return false
	}
}
