// Package network implements small feed forward value function
// approximators.
package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NeuralNet maps an observation vector to a vector of action values
// and can be nudged toward a target vector.
//
// Forward and Update must be called on a single goroutine or guarded
// together by a single lock: Update recomputes the forward pass
// internally, so interleaving it with another Update is unsafe.
type NeuralNet interface {
	// Forward returns the network's output for input. Forward does not
	// change the state of the network.
	Forward(input mat.Vector) (*mat.VecDense, error)

	// Update performs a single update step moving the network's
	// output for input toward target with step size learningRate.
	Update(input, target mat.Vector, learningRate float64) error

	// Inputs returns the length of input vectors
	Inputs() int

	// Outputs returns the length of output vectors
	Outputs() int
}

// DimError reports that a vector did not have the length required by
// a layer or network. Dimension mismatches are configuration errors;
// vectors are never truncated or padded.
type DimError struct {
	Op   string
	Want int
	Have int
}

// Error satisfies the error interface
func (d *DimError) Error() string {
	return fmt.Sprintf("%v: dimension mismatch\n\twant(%v)\n\thave(%v)",
		d.Op, d.Want, d.Have)
}
