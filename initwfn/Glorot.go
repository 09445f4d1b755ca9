package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
)

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm. Weights are
// drawn from U[-b, b] with b = gain * sqrt(6 / (fanIn + fanOut)).
func (g GlorotUConfig) Create(src rand.Source) Fn {
	return func(rows, cols int) []float64 {
		bound := g.Gain * math.Sqrt(6.0/float64(rows+cols))
		return uniform(-bound, bound, src)(rows, cols)
	}
}

// GlorotNConfig implements a configuration of the Glorot Normal
// initialization algorithm.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm. Weights are
// drawn from N(0, σ²) with σ = gain * sqrt(2 / (fanIn + fanOut)).
func (g GlorotNConfig) Create(src rand.Source) Fn {
	return func(rows, cols int) []float64 {
		stddev := g.Gain * math.Sqrt(2.0/float64(rows+cols))
		return gaussian(0, stddev, src)(rows, cols)
	}
}
