package agent

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/samuelfneumann/minidqn/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent the Config creates
	Type() Type
}

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
type Type string

const (
	EGreedyDeepQMLP Type = "EGreedyDeepQ-MLP"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be deserialized.
//
// No Type's are registered with this package upon initialization.
// Each agent package registers its own Config to avoid circular
// imports.
var registeredTypes = make(map[Type]reflect.Type)

// Register registers an agent's Type with a concrete Config type so
// that TypedConfigs of type agentType are deserialized into the
// concrete type of config.
func Register(agentType Type, config Config) {
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// TypedConfig implements functionality for typing a Config. In this
// way, a Config can explicitly have its type stored so that when
// deserializing the Config, we can deserialize it into its concrete
// type without declaring beforehand a variable of its concrete type.
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig types the argument Config and returns it as a
// TypedConfig which explicitly holds its Type.
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return err
	}

	t.Type = typeName
	t.Config = config

	return nil
}

// unmarshalConfig uses reflection to unmarshal a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField,
	valueJsonField string) (Config, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	rawType, ok := m[typeJsonField]
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing field %q",
			typeJsonField)
	}
	var typeName Type
	if err := json.Unmarshal(rawType, &typeName); err != nil {
		return nil, "", fmt.Errorf("unmarshalConfig: %v", err)
	}

	ty, found := registeredTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unregistered agent "+
			"type %q", typeName)
	}
	value := reflect.New(ty)

	if raw, ok := m[valueJsonField]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, "", err
		}
	}

	return value.Elem().Interface().(Config), typeName, nil
}
