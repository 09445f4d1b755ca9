package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
)

// HeUConfig implements a configuration of the He Uniform
// initialization algorithm.
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeUConfig) Type() Type {
	return HeU
}

// Create returns the weight initialization algorithm. Weights are
// drawn from U[-b, b] with b = gain * sqrt(6 / fanIn).
func (h HeUConfig) Create(src rand.Source) Fn {
	return func(rows, cols int) []float64 {
		bound := h.Gain * math.Sqrt(6.0/float64(cols))
		return uniform(-bound, bound, src)(rows, cols)
	}
}

// HeNConfig implements a configuration of the He Normal
// initialization algorithm.
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He Normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeNConfig) Type() Type {
	return HeN
}

// Create returns the weight initialization algorithm. Weights are
// drawn from N(0, σ²) with σ = gain * sqrt(2 / fanIn).
func (h HeNConfig) Create(src rand.Source) Fn {
	return func(rows, cols int) []float64 {
		stddev := h.Gain * math.Sqrt(2.0/float64(cols))
		return gaussian(0, stddev, src)(rows, cols)
	}
}
