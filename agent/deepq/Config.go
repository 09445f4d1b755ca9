package deepq

import (
	"fmt"

	"github.com/samuelfneumann/minidqn/agent"
	env "github.com/samuelfneumann/minidqn/environment"
	"github.com/samuelfneumann/minidqn/expreplay"
	"github.com/samuelfneumann/minidqn/initwfn"
)

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.EGreedyDeepQMLP, Config{})
}

// UpdateInput determines which observation of a sampled transition is
// regressed toward the Bellman target during learning.
//
// In both cases the Bellman target is built from the next state's
// action values. NextState additionally uses the next state as the
// network input for the update, so that Q(s', a) moves toward
// r + γ max Q(s', ·). State uses the transition's state, giving the
// usual DQN regression of Q(s, a) toward r + γ max Q(s', ·).
type UpdateInput string

const (
	NextState UpdateInput = "NextState"
	State     UpdateInput = "State"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	// Hidden layer sizes of the action value network. The input and
	// output layers are determined by the environment.
	Hidden []int

	// Initialization algorithm for weights. If nil, weights are drawn
	// uniformly from [-1, 1].
	InitWFn *initwfn.InitWFn

	// Behaviour policy exploration schedule
	Epsilon      float64
	EpsilonDecay float64
	EpsilonMin   float64

	Gamma        float64 // Discount factor
	LearningRate float64

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Which observation is used as the network input for updates. The
	// zero value means NextState.
	UpdateInput UpdateInput
}

// DefaultConfig returns a Config with a single hidden layer of 16
// units, an exploration schedule decaying from 1.0 to 0.1 by a factor
// of 0.995 per learning step and a replay buffer holding 10000
// transitions
func DefaultConfig() Config {
	return Config{
		Hidden:       []int{16},
		Epsilon:      1.0,
		EpsilonDecay: 0.995,
		EpsilonMin:   0.1,
		Gamma:        0.99,
		LearningRate: 0.01,
		ExpReplay:    expreplay.Config{Capacity: 10000},
		UpdateInput:  NextState,
	}
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.EGreedyDeepQMLP
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	for i, h := range c.Hidden {
		if h < 1 {
			return fmt.Errorf("validate: hidden layer %v must have positive "+
				"size\n\twant(>0)\n\thave(%v)", i, h)
		}
	}

	if c.EpsilonMin < 0 || c.EpsilonMin > 1 {
		return fmt.Errorf("validate: minimum epsilon must be in [0, 1]"+
			"\n\thave(%v)", c.EpsilonMin)
	}
	if c.Epsilon < c.EpsilonMin || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [%v, 1]\n\thave(%v)",
			c.EpsilonMin, c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1]"+
			"\n\thave(%v)", c.EpsilonDecay)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1]\n\thave(%v)",
			c.Gamma)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.LearningRate)
	}

	switch c.UpdateInput {
	case "", NextState, State:
	default:
		return fmt.Errorf("validate: unknown update input %q", c.UpdateInput)
	}

	if err := c.ExpReplay.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DeepQ)
	return ok
}

// CreateAgent creates a new DeepQ agent based on the configuration
func (c Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	numActions, err := e.ActionSpec().NumActions()
	if err != nil {
		return nil, fmt.Errorf("createAgent: %w", err)
	}
	features := e.ObservationSpec().Dim()

	d, err := New(c, features, numActions, seed)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// updateInput returns the UpdateInput, replacing the zero value with
// NextState
func (c Config) updateInput() UpdateInput {
	if c.UpdateInput == "" {
		return NextState
	}
	return c.UpdateInput
}

// initWFn returns the configured weight initializer or the default
// uniform [-1, 1] initializer
func (c Config) initWFn() (*initwfn.InitWFn, error) {
	if c.InitWFn != nil {
		return c.InitWFn, nil
	}
	return initwfn.NewUniform(-1, 1)
}
