package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a hyperrectangle
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter which samples feature
// i uniformly from bounds[i]
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return UniformStarter{len(bounds), rand}
}

// Start returns a starting state vector
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

// ZeroStarter always starts episodes at the origin
type ZeroStarter int

// NewZeroStarter returns a ZeroStarter for states with the given number
// of features
func NewZeroStarter(features int) ZeroStarter {
	return ZeroStarter(features)
}

// Start returns a zero vector
func (z ZeroStarter) Start() *mat.VecDense {
	return mat.NewVecDense(int(z), nil)
}
