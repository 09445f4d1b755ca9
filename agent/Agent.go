// Package agent defines an agent interface
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/network"
	"github.com/samuelfneumann/minidqn/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated from stored experience.
type Learner interface {
	// Remember stores a transition for later learning
	Remember(t timestep.Transition) error

	// CanLearn returns whether enough experience has been stored to
	// perform an update with the given batch size
	CanLearn(batchSize int) bool

	// Learn performs a single update using a batch of stored
	// experience. Learn returns an error if CanLearn(batchSize) is
	// false.
	Learn(batchSize int) error
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should share the same weights so that any changes
// the learner makes to the weights are reflected in the actions the
// Policy chooses.
type Policy interface {
	SelectAction(state mat.Vector) (int, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// EGreedy is a Policy which takes uniformly random actions with
// probability epsilon and greedy actions otherwise
type EGreedy interface {
	Policy
	Epsilon() float64
	SetEpsilon(float64)
	DecayEpsilon()
}

// NNAgent is an Agent whose action values are approximated by a neural
// network
type NNAgent interface {
	Agent
	Network() network.NeuralNet
}
