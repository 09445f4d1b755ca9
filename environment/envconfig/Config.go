// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/minidqn/environment"
	"github.com/samuelfneumann/minidqn/environment/cartpole"
	"github.com/samuelfneumann/minidqn/environment/drift"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Drift    EnvName = "Drift"
	Cartpole EnvName = "Cartpole"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	Drift				Drift
//	Cartpole			Balance
type TaskName string

// Tasks available for configuration
const (
	DriftTask TaskName = "Drift"
	Balance   TaskName = "Balance"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
//
// Features and Actions are only used by environments whose dimensions
// are configurable. An EpisodeCutoff of 0 disables the step limit.
type Config struct {
	Environment   EnvName
	Task          TaskName
	Features      int
	Actions       int
	EpisodeCutoff uint
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, features, actions int,
	episodeCutoff uint) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		Features:      features,
		Actions:       actions,
		EpisodeCutoff: episodeCutoff,
	}
}

// Default returns the configuration of the Drift environment with four
// features, two actions and a 500 step episode cutoff
func Default() Config {
	return NewConfig(Drift, DriftTask, 4, 2, 500)
}

// Validate returns an error if the Config cannot create an environment
func (c Config) Validate() error {
	switch c.Environment {
	case Drift:
		if c.Task != "" && c.Task != DriftTask {
			return fmt.Errorf("validate: Drift environment has no task %v",
				c.Task)
		}
		if c.Features < 1 || c.Actions < 1 {
			return fmt.Errorf("validate: Drift requires positive features "+
				"and actions\n\twant(>0, >0)\n\thave(%v, %v)", c.Features,
				c.Actions)
		}

	case Cartpole:
		if c.Task != "" && c.Task != Balance {
			return fmt.Errorf("validate: Cartpole environment has no task "+
				"%v", c.Task)
		}

	default:
		return fmt.Errorf("validate: cannot create environment %v, no "+
			"such environment", c.Environment)
	}

	return nil
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(int(c.EpisodeCutoff), seed)

	default:
		return CreateDrift(c.Features, c.Actions, int(c.EpisodeCutoff))
	}
}

// CreateDrift is a factory for creating the Drift environment
func CreateDrift(features, actions, cutoff int) (env.Environment, error) {
	d, err := drift.New(features, actions, cutoff)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(cutoff int, seed uint64) (env.Environment, error) {
	c, err := cartpole.New(cartpole.NewDefaultBalance(cutoff, seed))
	if err != nil {
		return nil, err
	}
	return c, nil
}
