package network

import "fmt"

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
)

// Activation represents an element-wise activation function
type Activation struct {
	activationType
	f func(x float64) float64
}

// fwd applies the Activation to x in place
func (a *Activation) fwd(x []float64) {
	for i := range x {
		x[i] = a.f(x[i])
	}
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.activationType), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	decoded := activationType(encoded)
	switch decoded {
	case relu:
		*a = *ReLU()
	case identity:
		*a = *Identity()
	default:
		return fmt.Errorf("gobdecode: illegal Activation type %q", decoded)
	}
	return nil
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(x float64) float64 {
			return x
		},
	}
}

// ReLU returns a rectified linear *Activation, max(0, x). NaN inputs
// are propagated.
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f: func(x float64) float64 {
			if x < 0 {
				return 0
			}
			return x
		},
	}
}
