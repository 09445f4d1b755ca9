// Package deepq implements an epsilon-greedy deep Q-learning agent with
// experience replay
package deepq

import (
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/expreplay"
	"github.com/samuelfneumann/minidqn/network"
	ts "github.com/samuelfneumann/minidqn/timestep"
	"github.com/samuelfneumann/minidqn/utils/floatutils"
)

// ErrCannotLearn is returned by Learn when the replay buffer holds
// fewer transitions than the requested batch size
var ErrCannotLearn = errors.New("not enough stored experience")

// DeepQ implements the deep Q-learning algorithm with a single action
// value network and uniformly sampled experience replay. Actions are
// selected ε-greedily, and ε decays after every learning step until it
// reaches a minimum value.
//
// For each sampled transition (s, a, r, s', terminal), the Bellman
// target is
//
//	y = r                          if terminal
//	y = r + γ max_a' Q(s', a')     otherwise
//
// and the network output for the update input x (see UpdateInput) is
// moved toward the vector Q(x, ·) with index a replaced by y, so that
// only the value of the action taken changes.
//
// A DeepQ exclusively owns its network and replay buffer and is not
// safe for concurrent use.
type DeepQ struct {
	net    network.NeuralNet
	replay *expreplay.Buffer
	rng    *rand.Rand // Exploration

	numActions int

	epsilon      float64
	epsilonDecay float64
	epsilonMin   float64
	gamma        float64
	learningRate float64
	updateInput  UpdateInput

	eval bool // Whether or not in evaluation mode
}

// New creates and returns a new DeepQ agent for an environment with the
// given number of state features and actions. The network has layer
// sizes [features, config.Hidden..., numActions].
//
// Independent random streams for weight initialization, replay
// sampling and exploration are all derived from seed.
func New(config Config, features, numActions int, seed uint64) (*DeepQ,
	error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if features < 1 || numActions < 1 {
		return nil, fmt.Errorf("new: features and actions must be positive"+
			"\n\twant(>0, >0)\n\thave(%v, %v)", features, numActions)
	}

	seeds := rand.New(rand.NewSource(seed))
	initSeed, replaySeed, policySeed := seeds.Uint64(), seeds.Uint64(),
		seeds.Uint64()

	init, err := config.initWFn()
	if err != nil {
		return nil, fmt.Errorf("new: could not create initializer: %v", err)
	}

	sizes := make([]int, 0, len(config.Hidden)+2)
	sizes = append(sizes, features)
	sizes = append(sizes, config.Hidden...)
	sizes = append(sizes, numActions)

	net, err := network.NewMLP(sizes, init.InitWFn(rand.NewSource(initSeed)),
		network.LastLayerDelta{})
	if err != nil {
		return nil, fmt.Errorf("new: could not create network: %v", err)
	}

	replay, err := config.ExpReplay.Create(replaySeed)
	if err != nil {
		msg := "new: could not create experience replay buffer: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return NewWith(config, net, replay, rand.New(rand.NewSource(policySeed)))
}

// NewWith creates a DeepQ agent which takes ownership of the argument
// network and replay buffer. The rng is used only for exploration.
// The number of actions is the number of network outputs.
func NewWith(config Config, net network.NeuralNet, replay *expreplay.Buffer,
	rng *rand.Rand) (*DeepQ, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newWith: %w", err)
	}
	if isNil(net) || replay == nil || rng == nil {
		return nil, fmt.Errorf("newWith: network, replay buffer and rng " +
			"must not be nil")
	}
	if size := replay.FeatureSize(); size != 0 && size != net.Inputs() {
		return nil, &network.DimError{Op: "newWith", Want: net.Inputs(),
			Have: size}
	}

	return &DeepQ{
		net:          net,
		replay:       replay,
		rng:          rng,
		numActions:   net.Outputs(),
		epsilon:      config.Epsilon,
		epsilonDecay: config.EpsilonDecay,
		epsilonMin:   config.EpsilonMin,
		gamma:        config.Gamma,
		learningRate: config.LearningRate,
		updateInput:  config.updateInput(),
	}, nil
}

// SelectAction selects an action in state. In training mode, with
// probability ε an action is drawn uniformly from [0, numActions);
// otherwise, and always in evaluation mode, the greedy action is
// returned. Ties between maximal action values go to the lowest index.
// If any action value is NaN, the greedy action is unspecified.
func (d *DeepQ) SelectAction(state mat.Vector) (int, error) {
	if !d.eval && d.rng.Float64() < d.epsilon {
		return d.rng.Intn(d.numActions), nil
	}

	return d.Greedy(state)
}

// Greedy returns the action with the highest value in state. Ties are
// broken by taking the first maximal index.
func (d *DeepQ) Greedy(state mat.Vector) (int, error) {
	values, err := d.net.Forward(state)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %w", err)
	}

	return floats.MaxIdx(values.RawVector().Data), nil
}

// Remember stores a transition in the replay buffer
func (d *DeepQ) Remember(t ts.Transition) error {
	if t.Action < 0 || t.Action >= d.numActions {
		return fmt.Errorf("remember: illegal action %v ∉ [0, %v)", t.Action,
			d.numActions)
	}
	if t.State == nil || t.NextState == nil {
		return fmt.Errorf("remember: transition states must not be nil")
	}
	if t.State.Len() != d.net.Inputs() {
		return &network.DimError{Op: "remember", Want: d.net.Inputs(),
			Have: t.State.Len()}
	}
	if t.NextState.Len() != d.net.Inputs() {
		return &network.DimError{Op: "remember", Want: d.net.Inputs(),
			Have: t.NextState.Len()}
	}
	if err := d.replay.Add(t); err != nil {
		return fmt.Errorf("remember: %w", err)
	}
	return nil
}

// StoreExperience is equivalent to Remember
func (d *DeepQ) StoreExperience(t ts.Transition) error {
	return d.Remember(t)
}

// CanLearn returns whether the replay buffer holds at least batchSize
// transitions
func (d *DeepQ) CanLearn(batchSize int) bool {
	return d.replay.Len() >= batchSize
}

// Learn samples batchSize transitions from the replay buffer, moves the
// network toward the Bellman target of each in turn and then decays ε.
// Learn returns an error wrapping ErrCannotLearn if CanLearn(batchSize)
// is false.
func (d *DeepQ) Learn(batchSize int) error {
	if !d.CanLearn(batchSize) {
		return fmt.Errorf("learn: %w (batch size %v, stored %v)",
			ErrCannotLearn, batchSize, d.replay.Len())
	}

	batch, err := d.replay.Sample(batchSize)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	for _, t := range batch {
		if err := d.learnFrom(t); err != nil {
			return err
		}
	}

	d.DecayEpsilon()
	return nil
}

// learnFrom performs a single update toward the Bellman target of t
func (d *DeepQ) learnFrom(t ts.Transition) error {
	target, err := d.Target(t)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	input := t.NextState
	if d.updateInput == State {
		input = t.State
	}

	targetVec, err := d.net.Forward(input)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}
	targetVec.SetVec(t.Action, target)

	if err := d.net.Update(input, targetVec, d.learningRate); err != nil {
		return fmt.Errorf("learn: %w", err)
	}
	return nil
}

// Target returns the Bellman target of a transition
func (d *DeepQ) Target(t ts.Transition) (float64, error) {
	if t.Terminal {
		return t.Reward, nil
	}

	next, err := d.net.Forward(t.NextState)
	if err != nil {
		return 0, fmt.Errorf("target: %w", err)
	}
	return t.Reward + d.gamma*floats.Max(next.RawVector().Data), nil
}

// DecayEpsilon multiplies ε by the decay rate if ε is above its
// minimum. ε never falls below its minimum.
func (d *DeepQ) DecayEpsilon() {
	if d.epsilon > d.epsilonMin {
		d.epsilon = floatutils.Clip(d.epsilon*d.epsilonDecay, d.epsilonMin, 1)
	}
}

// Epsilon returns the current value of ε
func (d *DeepQ) Epsilon() float64 {
	return d.epsilon
}

// SetEpsilon sets ε, clipped to [minimum ε, 1]
func (d *DeepQ) SetEpsilon(ε float64) {
	d.epsilon = floatutils.Clip(ε, d.epsilonMin, 1)
}

// Network returns the action value network of the agent
func (d *DeepQ) Network() network.NeuralNet {
	return d.net
}

// Buffer returns the replay buffer of the agent
func (d *DeepQ) Buffer() *expreplay.Buffer {
	return d.replay
}

// NumActions returns the number of actions the agent chooses between
func (d *DeepQ) NumActions() int {
	return d.numActions
}

// UpdateInput returns which observation is used as the network input
// for updates
func (d *DeepQ) UpdateInput() UpdateInput {
	return d.updateInput
}

// Eval sets the agent into evaluation mode, where actions are always
// selected greedily
func (d *DeepQ) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}

func (d *DeepQ) String() string {
	return fmt.Sprintf("DeepQ | Epsilon: %.4f  |  Gamma: %v  |  Replay: %v",
		d.epsilon, d.gamma, d.replay)
}

// isNil returns whether net is nil or an interface holding a nil
// pointer
func isNil(net network.NeuralNet) bool {
	if net == nil {
		return true
	}
	v := reflect.ValueOf(net)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
