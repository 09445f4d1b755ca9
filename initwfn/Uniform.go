package initwfn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformConfig implements a configuration of a weight initializer
// that draws weights independently from a uniform distribution
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	config := UniformConfig{
		Low:  low,
		High: high,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm
func (u UniformConfig) Create(src rand.Source) Fn {
	return uniform(u.Low, u.High, src)
}

func uniform(low, high float64, src rand.Source) Fn {
	dist := distuv.Uniform{Min: low, Max: high, Src: src}

	return func(rows, cols int) []float64 {
		weights := make([]float64, rows*cols)
		for i := range weights {
			weights[i] = dist.Rand()
		}
		return weights
	}
}
