// Package initwfn implements weight initialization algorithms for
// fully connected layers. Initializers are described by Config's which
// can be JSON serialized into configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	"golang.org/x/exp/rand"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
)

// Fn returns rows*cols freshly drawn weights for a weight matrix with
// the given number of rows (outputs) and columns (inputs), in row
// major order.
type Fn func(rows, cols int) []float64

// InitWFn wraps a weight initialization Config so that it can be JSON
// marshalled and unmarshalled.
type InitWFn struct {
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	return &InitWFn{Type: c.Type(), Config: c}, nil
}

// InitWFn returns the weight initialization function described by the
// wrapped Config. All randomness is drawn from src.
func (w *InitWFn) InitWFn(src rand.Source) Fn {
	return w.Config.Create(src)
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Type, w.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (w *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Uniform):  reflect.TypeOf(UniformConfig{}),
			string(Gaussian): reflect.TypeOf(GaussianConfig{}),
			string(GlorotU):  reflect.TypeOf(GlorotUConfig{}),
			string(GlorotN):  reflect.TypeOf(GlorotNConfig{}),
			string(HeU):      reflect.TypeOf(HeUConfig{}),
			string(HeN):      reflect.TypeOf(HeNConfig{}),
			string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
			string(Ones):     reflect.TypeOf(OnesConfig{}),
			string(Constant): reflect.TypeOf(ConstantConfig{}),
		})
	if err != nil {
		return err
	}

	w.Type = typeName
	w.Config = config

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing field %v",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: no such InitWFn type %v",
			typeName)
	}
	value := reflect.New(ty).Interface().(Config)

	// Configs without fields (e.g. Zeroes) may omit the value field
	if raw, ok := m[valueJsonField]; ok && raw != nil {
		valueBytes, err := json.Marshal(raw)
		if err != nil {
			return nil, "", err
		}

		if err = json.Unmarshal(valueBytes, &value); err != nil {
			return nil, "", err
		}
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a weight initializer configuration and can be used
// to create the described weight initialization function.
type Config interface {
	// Create returns the weight initialization function that the
	// Config describes, drawing randomness from src
	Create(src rand.Source) Fn

	// Type returns the type of initializer that is returned
	Type() Type
}
