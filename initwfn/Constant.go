package initwfn

import "golang.org/x/exp/rand"

// ZeroesConfig implements a configuration of a zero weight initializer
type ZeroesConfig struct{}

// NewZeroes returns a new zeroes weight intializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of the weight initializer created using this
// config
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create creates the weight initializer from this config
func (z ZeroesConfig) Create(_ rand.Source) Fn {
	return constant(0)
}

// OnesConfig implements a configuration of a weight initializer that
// initializes all weights to 1.
type OnesConfig struct{}

// NewOnes returns a new ones weight intializer
func NewOnes() (*InitWFn, error) {
	return newInitWFn(OnesConfig{})
}

// Type returns the type of the weight initializer created using this
// config
func (o OnesConfig) Type() Type {
	return Ones
}

// Create creates the weight initializer from this config
func (o OnesConfig) Create(_ rand.Source) Fn {
	return constant(1)
}

// ConstantConfig implements a configuration of a weight initializer
// that initializes all weights to a constant value.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight intializer
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{value})
}

// Type returns the type of the weight initializer created using this
// config
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create creates the weight initializer from this config
func (c ConstantConfig) Create(_ rand.Source) Fn {
	return constant(c.Value)
}

func constant(value float64) Fn {
	return func(rows, cols int) []float64 {
		weights := make([]float64, rows*cols)
		for i := range weights {
			weights[i] = value
		}
		return weights
	}
}
