package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/initwfn"
)

// MLP implements a multi-layered perceptron with one output per
// action. Every layer, including the last, computes ReLU(W·x + b), so
// all outputs are non-negative for finite inputs.
//
// An MLP is created once and afterwards mutated only through Update,
// which delegates to the MLP's Updater.
type MLP struct {
	layers  []*Layer
	updater Updater
}

// NewMLP creates and returns a new MLP. The sizes parameter lists the
// number of units in each layer, starting with the input features and
// ending with the number of outputs, e.g. []int{4, 16, 2} creates a
// network with 4 inputs, a single hidden layer of 16 units and 2
// outputs.
//
// Weights are drawn from init and biases start at zero. If updater is
// nil, LastLayerDelta is used.
func NewMLP(sizes []int, init initwfn.Fn, updater Updater) (*MLP, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("newMLP: at least input and output sizes "+
			"are required\n\twant(>=2)\n\thave(%v)", len(sizes))
	}
	if updater == nil {
		updater = LastLayerDelta{}
	}

	layers := make([]*Layer, len(sizes)-1)
	for i := range layers {
		layer, err := NewLayer(sizes[i], sizes[i+1], init, ReLU())
		if err != nil {
			return nil, fmt.Errorf("newMLP: could not create layer %v: %v",
				i, err)
		}
		layers[i] = layer
	}

	return &MLP{layers: layers, updater: updater}, nil
}

// activations computes the forward pass of the network, returning the
// input to each layer followed by the output of the last layer. The
// returned slice has len(m.layers)+1 elements.
func (m *MLP) activations(input mat.Vector) ([]*mat.VecDense, error) {
	if input.Len() != m.Inputs() {
		return nil, &DimError{Op: "forward", Want: m.Inputs(),
			Have: input.Len()}
	}

	acts := make([]*mat.VecDense, 0, len(m.layers)+1)
	acts = append(acts, mat.VecDenseCopyOf(input))

	for i, layer := range m.layers {
		out, err := layer.fwd(acts[i])
		if err != nil {
			return nil, fmt.Errorf("forward: layer %v: %w", i, err)
		}
		acts = append(acts, out)
	}

	return acts, nil
}

// Forward computes the action values for input
func (m *MLP) Forward(input mat.Vector) (*mat.VecDense, error) {
	acts, err := m.activations(input)
	if err != nil {
		return nil, err
	}
	return acts[len(acts)-1], nil
}

// Update moves the network's prediction for input toward target using
// the network's Updater
func (m *MLP) Update(input, target mat.Vector, learningRate float64) error {
	if target.Len() != m.Outputs() {
		return &DimError{Op: "update", Want: m.Outputs(), Have: target.Len()}
	}
	return m.updater.Update(m, input, target, learningRate)
}

// Updater returns the update strategy used by the network
func (m *MLP) Updater() Updater {
	return m.updater
}

// SetUpdater sets the update strategy used by the network
func (m *MLP) SetUpdater(u Updater) {
	m.updater = u
}

// Inputs returns the number of features the network takes as input
func (m *MLP) Inputs() int {
	return m.layers[0].Inputs()
}

// Outputs returns the number of outputs of the network
func (m *MLP) Outputs() int {
	return m.layers[len(m.layers)-1].Outputs()
}

// NumLayers returns the number of layers in the network
func (m *MLP) NumLayers() int {
	return len(m.layers)
}

// Layers returns the layers of the network, from input to output. The
// returned slice may be modified without affecting the network, but the
// layers themselves are shared.
func (m *MLP) Layers() []*Layer {
	return append([]*Layer(nil), m.layers...)
}

// Layer returns layer i of the network
func (m *MLP) Layer(i int) *Layer {
	return m.layers[i]
}

// Clone returns a deep copy of the network. The clone shares no
// storage with m.
func (m *MLP) Clone() *MLP {
	layers := make([]*Layer, len(m.layers))
	for i, layer := range m.layers {
		layers[i] = layer.clone()
	}
	return &MLP{layers: layers, updater: m.updater}
}

// GobEncode implements the gob.GobEncoder interface
func (m *MLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(len(m.layers))
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of layers")
	}

	for i, layer := range m.layers {
		err := enc.Encode(layer)
		if err != nil {
			msg := "gobencode: could not encode layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded
// network uses the LastLayerDelta Updater unless m already had an
// Updater set.
func (m *MLP) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var numLayers int
	err := dec.Decode(&numLayers)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of layers")
	}
	if numLayers < 1 {
		return fmt.Errorf("gobdecode: network must have at least one layer")
	}

	layers := make([]*Layer, numLayers)
	for i := range layers {
		layers[i] = &Layer{}
		if err := dec.Decode(layers[i]); err != nil {
			return fmt.Errorf("gobdecode: could not decode layer %v: %v", i,
				err)
		}

		if i > 0 && layers[i-1].Outputs() != layers[i].Inputs() {
			return &DimError{Op: "gobdecode", Want: layers[i-1].Outputs(),
				Have: layers[i].Inputs()}
		}
	}

	m.layers = layers
	if m.updater == nil {
		m.updater = LastLayerDelta{}
	}
	return nil
}

// Save saves the network to a file
func (m *MLP) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(m); err != nil {
		return fmt.Errorf("save: could not encode network: %v", err)
	}
	return nil
}

// Load loads a network previously saved with Save
func Load(filename string) (*MLP, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	var m MLP
	if err := gob.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("load: could not decode network: %v", err)
	}
	return &m, nil
}
