package deepq

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/minidqn/agent"
	"github.com/samuelfneumann/minidqn/environment/drift"
	"github.com/samuelfneumann/minidqn/expreplay"
	"github.com/samuelfneumann/minidqn/initwfn"
	"github.com/samuelfneumann/minidqn/network"
	ts "github.com/samuelfneumann/minidqn/timestep"
)

// newLinearAgent returns an agent whose network is a single layer with
// the given weights (rows = actions) and zero bias
func newLinearAgent(t *testing.T, config Config, weights *mat.Dense,
	seed uint64) *DeepQ {
	t.Helper()

	actions, features := weights.Dims()
	zeroes, err := initwfn.NewZeroes()
	require.NoError(t, err)

	net, err := network.NewMLP([]int{features, actions}, zeroes.InitWFn(nil),
		nil)
	require.NoError(t, err)
	require.NoError(t, net.Layer(0).Set(weights, mat.NewVecDense(actions,
		nil)))

	replay, err := config.ExpReplay.Create(seed)
	require.NoError(t, err)

	d, err := NewWith(config, net, replay, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return d
}

func vec(data ...float64) *mat.VecDense {
	return mat.NewVecDense(len(data), data)
}

func greedyConfig() Config {
	config := DefaultConfig()
	config.Epsilon = 0
	config.EpsilonMin = 0
	return config
}

func TestSelectActionUniformWhenEpsilonOne(t *testing.T) {
	const (
		actions = 4
		trials  = 40000
	)

	d, err := New(DefaultConfig(), 3, actions, 11)
	require.NoError(t, err)
	require.Equal(t, 1.0, d.Epsilon())

	counts := make([]int, actions)
	for i := 0; i < trials; i++ {
		a, err := d.SelectAction(vec(0.1, 0.2, 0.3))
		require.NoError(t, err)
		require.True(t, a >= 0 && a < actions)
		counts[a]++
	}

	for a, c := range counts {
		assert.InDelta(t, 1.0/actions, float64(c)/trials, 0.02, "action %v", a)
	}
}

func TestSelectActionGreedyWhenEpsilonZero(t *testing.T) {
	weights := mat.NewDense(3, 2, []float64{
		1, 0,
		3, 0,
		3, 0,
	})
	d := newLinearAgent(t, greedyConfig(), weights, 1)

	for i := 0; i < 200; i++ {
		a, err := d.SelectAction(vec(1, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, a, "ties must go to the first maximal index")
	}

	a, err := d.SelectAction(vec(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, a, "all-zero values select action 0")
}

func TestEvalModeIsGreedy(t *testing.T) {
	weights := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	config := DefaultConfig()
	d := newLinearAgent(t, config, weights, 1)

	d.Eval()
	require.True(t, d.IsEval())
	for i := 0; i < 100; i++ {
		a, err := d.SelectAction(vec(1, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, a)
	}
	assert.Equal(t, 1.0, d.Epsilon())

	d.Train()
	assert.False(t, d.IsEval())
}

func TestSelectActionDimensionMismatch(t *testing.T) {
	d, err := New(greedyConfig(), 3, 2, 1)
	require.NoError(t, err)

	_, err = d.SelectAction(vec(1, 2))
	var dimErr *network.DimError
	assert.ErrorAs(t, err, &dimErr)
}

func TestEpsilonNeverBelowMinimum(t *testing.T) {
	d, err := New(DefaultConfig(), 2, 2, 1)
	require.NoError(t, err)

	prev := d.Epsilon()
	for i := 0; i < 5000; i++ {
		d.DecayEpsilon()
		require.LessOrEqual(t, d.Epsilon(), prev)
		require.GreaterOrEqual(t, d.Epsilon(), 0.1)
		prev = d.Epsilon()
	}
	assert.Equal(t, 0.1, d.Epsilon())

	d.SetEpsilon(0.01)
	assert.Equal(t, 0.1, d.Epsilon())
	d.SetEpsilon(2)
	assert.Equal(t, 1.0, d.Epsilon())
}

func TestDecayEpsilon(t *testing.T) {
	d, err := New(DefaultConfig(), 2, 2, 1)
	require.NoError(t, err)

	d.DecayEpsilon()
	assert.InDelta(t, 0.995, d.Epsilon(), 1e-15)
	d.DecayEpsilon()
	assert.InDelta(t, 0.995*0.995, d.Epsilon(), 1e-15)
}

func TestLearnFailsWithoutEnoughExperience(t *testing.T) {
	d, err := New(DefaultConfig(), 2, 2, 1)
	require.NoError(t, err)

	assert.False(t, d.CanLearn(1))
	err = d.Learn(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCannotLearn))
	assert.Equal(t, 1.0, d.Epsilon(), "failed learn must not decay epsilon")

	require.NoError(t, d.Remember(ts.NewTransition(vec(0, 0), 1, 1,
		vec(0.01, 0.01), false)))
	assert.True(t, d.CanLearn(1))
	assert.False(t, d.CanLearn(2))
}

func TestLearnDecaysEpsilonOncePerBatch(t *testing.T) {
	d, err := New(DefaultConfig(), 2, 2, 1)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, d.Remember(ts.NewTransition(vec(0, 0), 1, 1,
			vec(0.01, 0.01), false)))
	}
	require.NoError(t, d.Learn(4))
	assert.InDelta(t, 0.995, d.Epsilon(), 1e-15)
	assert.Equal(t, 4, d.Buffer().Len(), "learning must not consume "+
		"experience")
}

// learnOnce builds a zero initialized single layer agent with the given
// update input, learns from one terminal transition and returns the
// agent
func learnOnce(t *testing.T, input UpdateInput, transition ts.Transition,
	lr float64) *DeepQ {
	t.Helper()

	config := greedyConfig()
	config.Gamma = 0
	config.LearningRate = lr
	config.UpdateInput = input
	config.ExpReplay = expreplay.Config{Capacity: 1}

	d := newLinearAgent(t, config, mat.NewDense(2, 2, nil), 1)
	require.NoError(t, d.Remember(transition))
	require.NoError(t, d.Learn(1))
	return d
}

func TestLearnNextStateInput(t *testing.T) {
	const (
		lr     = 0.1
		reward = 2.0
	)
	state, next := vec(1, 0), vec(0, 1)
	d := learnOnce(t, NextState, ts.NewTransition(state, 1, reward, next,
		true), lr)

	// The update regresses Q(s', 1) toward r, so W[1] += lr*r*s' and
	// b[1] += lr*r
	atNext, err := d.Network().Forward(next)
	require.NoError(t, err)
	atState, err := d.Network().Forward(state)
	require.NoError(t, err)

	assert.InDelta(t, 2*lr*reward, atNext.AtVec(1), 1e-12)
	assert.InDelta(t, lr*reward, atState.AtVec(1), 1e-12)

	// The action not taken is left untouched
	assert.Equal(t, 0.0, atNext.AtVec(0))
	assert.Equal(t, 0.0, atState.AtVec(0))
}

func TestLearnStateInput(t *testing.T) {
	const (
		lr     = 0.1
		reward = 2.0
	)
	state, next := vec(1, 0), vec(0, 1)
	d := learnOnce(t, State, ts.NewTransition(state, 1, reward, next, true),
		lr)

	atNext, err := d.Network().Forward(next)
	require.NoError(t, err)
	atState, err := d.Network().Forward(state)
	require.NoError(t, err)

	assert.InDelta(t, 2*lr*reward, atState.AtVec(1), 1e-12)
	assert.InDelta(t, lr*reward, atNext.AtVec(1), 1e-12)
	assert.Equal(t, 0.0, atNext.AtVec(0))
	assert.Equal(t, 0.0, atState.AtVec(0))
}

func TestLearnOnlyMovesTakenAction(t *testing.T) {
	weights := mat.NewDense(3, 2, []float64{
		0.5, 0.1,
		0.2, 0.3,
		0.4, 0.4,
	})
	config := DefaultConfig()
	config.ExpReplay = expreplay.Config{Capacity: 1}
	config.UpdateInput = State
	d := newLinearAgent(t, config, weights, 1)

	state, next := vec(1, 2), vec(2, 1)
	before, err := d.Network().Forward(state)
	require.NoError(t, err)

	require.NoError(t, d.Remember(ts.NewTransition(state, 2, 5, next,
		false)))
	require.NoError(t, d.Learn(1))

	after, err := d.Network().Forward(state)
	require.NoError(t, err)
	assert.InDelta(t, before.AtVec(0), after.AtVec(0), 1e-12)
	assert.InDelta(t, before.AtVec(1), after.AtVec(1), 1e-12)
	assert.Greater(t, after.AtVec(2), before.AtVec(2))
}

func TestTarget(t *testing.T) {
	weights := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	config := greedyConfig()
	config.Gamma = 0.5
	d := newLinearAgent(t, config, weights, 1)

	target, err := d.Target(ts.NewTransition(vec(0, 0), 0, 1, vec(2, 3),
		false))
	require.NoError(t, err)
	assert.InDelta(t, 1+0.5*3, target, 1e-12)

	target, err = d.Target(ts.NewTransition(vec(0, 0), 0, 1, vec(2, 3), true))
	require.NoError(t, err)
	assert.Equal(t, 1.0, target)
}

func TestRememberAndStoreExperienceAreEquivalent(t *testing.T) {
	a, err := New(DefaultConfig(), 2, 2, 5)
	require.NoError(t, err)
	b, err := New(DefaultConfig(), 2, 2, 5)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		tr := ts.NewTransition(vec(float64(i), 0), i%2, float64(i),
			vec(0, float64(i)), i == 9)
		require.NoError(t, a.Remember(tr))
		require.NoError(t, b.StoreExperience(tr))
	}

	require.Equal(t, a.Buffer().Len(), b.Buffer().Len())
	for i := 0; i < a.Buffer().Len(); i++ {
		assert.Equal(t, a.Buffer().At(i).String(), b.Buffer().At(i).String())
	}
}

func TestRememberRejectsBadTransitions(t *testing.T) {
	d, err := New(DefaultConfig(), 2, 2, 5)
	require.NoError(t, err)

	assert.Error(t, d.Remember(ts.NewTransition(vec(0, 0), 2, 0, vec(0, 0),
		false)))
	require.NoError(t, d.Remember(ts.NewTransition(vec(0, 0), 1, 0,
		vec(0, 0), false)))

	var dimErr *network.DimError
	err = d.Remember(ts.NewTransition(vec(0, 0, 0), 1, 0, vec(0, 0, 0),
		false))
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "remember", dimErr.Op)
	assert.Equal(t, 2, dimErr.Want)
	assert.Equal(t, 3, dimErr.Have)
}

func TestRememberWrongSizeDoesNotPoisonBuffer(t *testing.T) {
	d, err := New(DefaultConfig(), 2, 2, 5)
	require.NoError(t, err)

	var dimErr *network.DimError
	err = d.Remember(ts.NewTransition(vec(0, 0, 0), 1, 0, vec(0, 0, 0),
		false))
	require.ErrorAs(t, err, &dimErr)
	err = d.Remember(ts.NewTransition(vec(0, 0), 1, 0, vec(0, 0, 0), false))
	require.ErrorAs(t, err, &dimErr)
	assert.Zero(t, d.Buffer().Len())

	require.NoError(t, d.Remember(ts.NewTransition(vec(0, 0), 1, 1,
		vec(0.01, 0.01), false)))
	require.True(t, d.CanLearn(1))
	assert.NoError(t, d.Learn(1))
}

func TestNewWithRejectsMismatchedBuffer(t *testing.T) {
	config := DefaultConfig()
	net, err := network.NewMLP([]int{2, 3}, uniformFn(t), nil)
	require.NoError(t, err)

	replay, err := config.ExpReplay.Create(1)
	require.NoError(t, err)
	require.NoError(t, replay.Add(ts.NewTransition(vec(0, 0, 0), 0, 0,
		vec(0, 0, 0), false)))

	var dimErr *network.DimError
	_, err = NewWith(config, net, replay, rand.New(rand.NewSource(1)))
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Want)
	assert.Equal(t, 3, dimErr.Have)

	replay.Clear()
	_, err = NewWith(config, net, replay, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)
}

func TestNewWithRejectsTypedNilNetwork(t *testing.T) {
	config := DefaultConfig()
	replay, err := config.ExpReplay.Create(1)
	require.NoError(t, err)

	var net *network.MLP
	_, err = NewWith(config, net, replay, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestLearnTargetErrorIsPrefixed(t *testing.T) {
	d := newLinearAgent(t, greedyConfig(), mat.NewDense(2, 2, nil), 1)
	wrong := &stubNet{inputs: 2, outputs: 2}
	d.net = wrong

	require.NoError(t, d.Remember(ts.NewTransition(vec(0, 0), 0, 0,
		vec(0, 0), false)))
	wrong.fail = true

	err := d.Learn(1)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "learn: target: "),
		err.Error())
}

// stubNet is a NeuralNet whose Forward can be made to fail
type stubNet struct {
	inputs, outputs int
	fail            bool
}

func (s *stubNet) Forward(input mat.Vector) (*mat.VecDense, error) {
	if s.fail {
		return nil, errors.New("forward: failed")
	}
	return mat.NewVecDense(s.outputs, nil), nil
}

func (s *stubNet) Update(input, target mat.Vector, lr float64) error {
	return nil
}

func (s *stubNet) Inputs() int  { return s.inputs }
func (s *stubNet) Outputs() int { return s.outputs }

func uniformFn(t *testing.T) initwfn.Fn {
	t.Helper()
	init, err := initwfn.NewUniform(-1, 1)
	require.NoError(t, err)
	return init.InitWFn(rand.NewSource(1))
}

func TestSeedDeterminism(t *testing.T) {
	a, err := New(DefaultConfig(), 4, 3, 99)
	require.NoError(t, err)
	b, err := New(DefaultConfig(), 4, 3, 99)
	require.NoError(t, err)

	state := vec(0.1, -0.2, 0.3, 0.4)
	for i := 0; i < 50; i++ {
		actA, err := a.SelectAction(state)
		require.NoError(t, err)
		actB, err := b.SelectAction(state)
		require.NoError(t, err)
		require.Equal(t, actA, actB)
	}

	netA := a.Network().(*network.MLP)
	netB := b.Network().(*network.MLP)
	for i := 0; i < netA.NumLayers(); i++ {
		assert.True(t, mat.Equal(netA.Layer(i).Weights(),
			netB.Layer(i).Weights()))
	}
}

func TestNewBuildsNetwork(t *testing.T) {
	config := DefaultConfig()
	config.Hidden = []int{8, 5}

	d, err := New(config, 4, 2, 1)
	require.NoError(t, err)

	net := d.Network().(*network.MLP)
	require.Equal(t, 3, net.NumLayers())
	assert.Equal(t, 4, net.Inputs())
	assert.Equal(t, 8, net.Layer(0).Outputs())
	assert.Equal(t, 5, net.Layer(1).Outputs())
	assert.Equal(t, 2, net.Outputs())
	assert.Equal(t, 2, d.NumActions())
	assert.Equal(t, NextState, d.UpdateInput())
	assert.Equal(t, 10000, d.Buffer().Capacity())

	// Default weights are uniform in [-1, 1]
	w := net.Layer(0).Weights()
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.LessOrEqual(t, math.Abs(w.At(i, j)), 1.0)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	invalid := []func(*Config){
		func(c *Config) { c.Hidden = []int{0} },
		func(c *Config) { c.Epsilon = 1.5 },
		func(c *Config) { c.Epsilon = 0.05 },
		func(c *Config) { c.EpsilonMin = -1 },
		func(c *Config) { c.EpsilonDecay = 0 },
		func(c *Config) { c.EpsilonDecay = 1.1 },
		func(c *Config) { c.Gamma = 1.1 },
		func(c *Config) { c.LearningRate = 0 },
		func(c *Config) { c.UpdateInput = "Previous" },
		func(c *Config) { c.ExpReplay.Capacity = 0 },
	}

	for i, modify := range invalid {
		config := DefaultConfig()
		modify(&config)
		assert.Error(t, config.Validate(), "case %v", i)

		_, err := New(config, 2, 2, 1)
		assert.Error(t, err, "case %v", i)
	}
}

func TestCreateAgent(t *testing.T) {
	e, err := drift.New(4, 2, 100)
	require.NoError(t, err)

	config := DefaultConfig()
	a, err := config.CreateAgent(e, 1)
	require.NoError(t, err)
	assert.True(t, config.ValidAgent(a))

	d := a.(*DeepQ)
	assert.Equal(t, 4, d.Network().Inputs())
	assert.Equal(t, 2, d.Network().Outputs())
}

func TestTypedConfigJSON(t *testing.T) {
	config := DefaultConfig()
	config.UpdateInput = State
	init, err := initwfn.NewGlorotU(1)
	require.NoError(t, err)
	config.InitWFn = init

	data, err := json.Marshal(agent.NewTypedConfig(config))
	require.NoError(t, err)

	var typed agent.TypedConfig
	require.NoError(t, json.Unmarshal(data, &typed))
	assert.Equal(t, agent.EGreedyDeepQMLP, typed.Type)

	decoded, ok := typed.Config.(Config)
	require.True(t, ok)
	assert.Equal(t, config.Hidden, decoded.Hidden)
	assert.Equal(t, config.ExpReplay, decoded.ExpReplay)
	assert.Equal(t, State, decoded.UpdateInput)
	assert.Equal(t, initwfn.GlorotU, decoded.InitWFn.Type)

	var unknown agent.TypedConfig
	assert.Error(t, json.Unmarshal([]byte(`{"Type": "SAC", "Config": {}}`),
		&unknown))
}

func BenchmarkLearn(b *testing.B) {
	const batch = 32

	d, err := New(DefaultConfig(), 4, 2, 1)
	if err != nil {
		b.Fatal(err)
	}

	e, err := drift.New(4, 2, 0)
	if err != nil {
		b.Fatal(err)
	}
	state := e.Reset()
	for i := 0; i < batch; i++ {
		action := i % 2
		next, reward, done := e.Step(action)
		tr := ts.NewTransition(state, action, reward, next, done)
		if err := d.Remember(tr); err != nil {
			b.Fatal(err)
		}
		state = next
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := d.Learn(batch); err != nil {
			b.Fatal(err)
		}
	}
}
