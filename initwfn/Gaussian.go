package initwfn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianConfig implements a configuration of a weight initializer
// that draws weights from a gaussian distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	config := GaussianConfig{
		Mean:   mean,
		StdDev: stddev,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GaussianConfig) Type() Type {
	return Gaussian
}

// Create returns the weight initialization algorithm
func (g GaussianConfig) Create(src rand.Source) Fn {
	return gaussian(g.Mean, g.StdDev, src)
}

func gaussian(mean, stddev float64, src rand.Source) Fn {
	dist := distuv.Normal{Mu: mean, Sigma: stddev, Src: src}

	return func(rows, cols int) []float64 {
		weights := make([]float64, rows*cols)
		for i := range weights {
			weights[i] = dist.Rand()
		}
		return weights
	}
}
