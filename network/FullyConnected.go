package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/initwfn"
)

// Layer implements a fully connected layer of a feed forward neural
// network, computing act(W·x + b). The weight matrix W has one row per
// output and one column per input.
//
// A Layer owns its weights and bias. They are never shared with other
// layers or networks.
type Layer struct {
	weights *mat.Dense
	bias    *mat.VecDense
	act     *Activation
}

// NewLayer returns a new fully connected layer with the given number of
// inputs and outputs. Weights are drawn from init and biases are set
// to zero.
func NewLayer(inputs, outputs int, init initwfn.Fn,
	act *Activation) (*Layer, error) {
	if inputs < 1 || outputs < 1 {
		return nil, fmt.Errorf("newLayer: layer dimensions must be positive"+
			"\n\twant(>0, >0)\n\thave(%v, %v)", inputs, outputs)
	}
	if act == nil {
		act = ReLU()
	}

	weights := init(outputs, inputs)
	if len(weights) != inputs*outputs {
		return nil, fmt.Errorf("newLayer: initializer returned %v weights, "+
			"expected %v", len(weights), inputs*outputs)
	}

	return &Layer{
		weights: mat.NewDense(outputs, inputs, weights),
		bias:    mat.NewVecDense(outputs, nil),
		act:     act,
	}, nil
}

// fwd computes the output of the layer given input x
func (l *Layer) fwd(x mat.Vector) (*mat.VecDense, error) {
	if x.Len() != l.Inputs() {
		return nil, &DimError{Op: "fwd", Want: l.Inputs(), Have: x.Len()}
	}

	out := mat.NewVecDense(l.Outputs(), nil)
	out.MulVec(l.weights, x)
	out.AddVec(out, l.bias)
	l.act.fwd(out.RawVector().Data)

	return out, nil
}

// Inputs returns the number of inputs to the layer
func (l *Layer) Inputs() int {
	_, c := l.weights.Dims()
	return c
}

// Outputs returns the number of outputs of the layer
func (l *Layer) Outputs() int {
	r, _ := l.weights.Dims()
	return r
}

// Weights returns a copy of the layer's weight matrix
func (l *Layer) Weights() *mat.Dense {
	return mat.DenseCopyOf(l.weights)
}

// Bias returns a copy of the layer's bias vector
func (l *Layer) Bias() *mat.VecDense {
	return mat.VecDenseCopyOf(l.bias)
}

// Activation returns the layer's activation function
func (l *Layer) Activation() *Activation {
	return l.act
}

// Set copies the argument weights and bias into the layer
func (l *Layer) Set(weights mat.Matrix, bias mat.Vector) error {
	r, c := weights.Dims()
	if r != l.Outputs() || c != l.Inputs() {
		return fmt.Errorf("set: invalid weight shape\n\twant(%v, %v)"+
			"\n\thave(%v, %v)", l.Outputs(), l.Inputs(), r, c)
	}
	if bias.Len() != l.Outputs() {
		return &DimError{Op: "set", Want: l.Outputs(), Have: bias.Len()}
	}

	l.weights.Copy(weights)
	l.bias.CopyVec(bias)
	return nil
}

// clone returns a deep copy of the layer
func (l *Layer) clone() *Layer {
	act := *l.act
	return &Layer{
		weights: mat.DenseCopyOf(l.weights),
		bias:    mat.VecDenseCopyOf(l.bias),
		act:     &act,
	}
}

// GobEncode implements the gob.GobEncoder interface. Weights and biases
// are stored with gonum's binary format so that decoding reproduces
// them bit for bit.
func (l *Layer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	weights, err := l.weights.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not marshal weights: %v", err)
	}
	bias, err := l.bias.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not marshal bias: %v", err)
	}

	if err := enc.Encode(weights); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode weights: %v", err)
	}
	if err := enc.Encode(bias); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode bias: %v", err)
	}
	if err := enc.Encode(l.act); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activation: %v",
			err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (l *Layer) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var weightBytes, biasBytes []byte
	if err := dec.Decode(&weightBytes); err != nil {
		return fmt.Errorf("gobdecode: could not decode weights: %v", err)
	}
	if err := dec.Decode(&biasBytes); err != nil {
		return fmt.Errorf("gobdecode: could not decode bias: %v", err)
	}

	var act Activation
	if err := dec.Decode(&act); err != nil {
		return fmt.Errorf("gobdecode: could not decode activation: %v", err)
	}

	var weights mat.Dense
	if err := weights.UnmarshalBinary(weightBytes); err != nil {
		return fmt.Errorf("gobdecode: could not unmarshal weights: %v", err)
	}
	var bias mat.VecDense
	if err := bias.UnmarshalBinary(biasBytes); err != nil {
		return fmt.Errorf("gobdecode: could not unmarshal bias: %v", err)
	}

	if r, _ := weights.Dims(); r != bias.Len() {
		return &DimError{Op: "gobdecode", Want: r, Have: bias.Len()}
	}

	l.weights = &weights
	l.bias = &bias
	l.act = &act
	return nil
}
