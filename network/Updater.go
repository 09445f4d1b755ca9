package network

import (
	"gonum.org/v1/gonum/mat"
)

// Updater implements a strategy for moving an MLP's output toward a
// target vector. Keeping the strategy separate from the MLP allows a
// different learning rule to be substituted without changing the
// agents or replay buffers that use the network.
type Updater interface {
	Update(m *MLP, input, target mat.Vector, learningRate float64) error
}

// LastLayerDelta implements the delta rule on the final layer of an
// MLP only. Given input x, the forward pass is recomputed to obtain the
// last layer's own input h and output y. For each output unit i:
//
//	err[i]   = target[i] - y[i]
//	W[i][j] += learningRate * err[i] * h[j]
//	b[i]    += learningRate * err[i]
//
// Earlier layers are never modified. Note that the ReLU derivative is
// not applied, so units clamped at zero still move toward the target.
type LastLayerDelta struct{}

// Update implements the Updater interface
func (LastLayerDelta) Update(m *MLP, input, target mat.Vector,
	learningRate float64) error {
	acts, err := m.activations(input)
	if err != nil {
		return err
	}

	last := m.layers[len(m.layers)-1]
	h := acts[len(acts)-2]
	y := acts[len(acts)-1]

	delta := mat.NewVecDense(y.Len(), nil)
	delta.SubVec(target, y)

	last.weights.RankOne(last.weights, learningRate, delta, h)
	last.bias.AddScaledVec(last.bias, learningRate, delta)

	return nil
}
