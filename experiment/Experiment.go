// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/minidqn/agent"
	"github.com/samuelfneumann/minidqn/agent/deepq"
	"github.com/samuelfneumann/minidqn/environment/envconfig"
	"github.com/samuelfneumann/minidqn/experiment/checkpointer"
	"github.com/samuelfneumann/minidqn/experiment/tracker"
)

// Experiment outlines structs that can run experiments. Experiments
// send each environment TimeStep to their Trackers, which cache the
// data they need in RAM until Save() writes it to disk. Run() runs all
// episodes of the experiment and RunEpisode() runs a single episode.
// After each episode, Checkpointers are given the chance to save the
// state of the agent.
type Experiment interface {
	Run(ctx context.Context) ([]EpisodeResult, error)
	RunEpisode(ctx context.Context) (EpisodeResult, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Adds a new checkpointer.Checkpointer to the experiment
	AddCheckpointer(c checkpointer.Checkpointer)
}

// EpisodeResult summarizes a single finished episode
type EpisodeResult struct {
	Episode     int
	TotalReward float64
	Steps       int
	Epsilon     float64 // Exploration rate after the episode, if any
}

func (e EpisodeResult) String() string {
	return fmt.Sprintf("Episode %d | Total reward: %.2f | Steps: %d | "+
		"Epsilon: %.4f", e.Episode, e.TotalReward, e.Steps, e.Epsilon)
}

// Type is the type of an experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	Episodes  int
	BatchSize int
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfig
}

// DefaultConfig returns a Config which trains a DeepQ agent on the
// default Drift environment for 100 episodes with batches of 32
// transitions
func DefaultConfig() Config {
	return Config{
		Type:      OnlineExp,
		Episodes:  100,
		BatchSize: 32,
		EnvConf:   envconfig.Default(),
		AgentConf: agent.NewTypedConfig(deepq.DefaultConfig()),
	}
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %v", c.Type)
	}
	if c.Episodes < 1 {
		return fmt.Errorf("validate: episodes must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Episodes)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.BatchSize)
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.AgentConf.Config == nil {
		return fmt.Errorf("validate: missing agent configuration")
	}
	if err := c.AgentConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// CreateExp creates the experiment described by the Config. The
// environment and agent are both seeded with seed.
func (c Config) CreateExp(seed uint64, t []tracker.Tracker,
	check []checkpointer.Checkpointer) (*Online, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %w", err)
	}

	env, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %w",
			err)
	}

	a, err := c.AgentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %w", err)
	}

	return NewOnline(env, a, c.Episodes, c.BatchSize, t, check)
}
