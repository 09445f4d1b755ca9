package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetStartsAtOrigin(t *testing.T) {
	d, err := New(4, 2, 0)
	require.NoError(t, err)

	state := d.Reset()
	require.Equal(t, 4, state.Len())
	for i := 0; i < state.Len(); i++ {
		assert.Zero(t, state.AtVec(i))
	}
	assert.False(t, d.IsDone())
}

func TestStepDriftsAndRewards(t *testing.T) {
	d, err := New(3, 3, 0)
	require.NoError(t, err)
	d.Reset()

	next, reward, done := d.Step(1)
	assert.Equal(t, 1.0, reward)
	assert.False(t, done)
	for i := 0; i < next.Len(); i++ {
		assert.InDelta(t, 0.01, next.AtVec(i), 1e-12)
	}

	next, reward, done = d.Step(2)
	assert.Zero(t, reward)
	assert.False(t, done)
	for i := 0; i < next.Len(); i++ {
		assert.InDelta(t, 0.03, next.AtVec(i), 1e-12)
	}

	next, reward, _ = d.Step(0)
	assert.Zero(t, reward)
	assert.InDelta(t, 0.03, next.AtVec(0), 1e-12)
}

func TestReturnedStateIsNotAliased(t *testing.T) {
	d, err := New(2, 2, 0)
	require.NoError(t, err)
	state := d.Reset()
	state.SetVec(0, 100)

	next, _, _ := d.Step(1)
	assert.InDelta(t, 0.01, next.AtVec(0), 1e-12)
}

func TestEpisodeEndsAboveThreshold(t *testing.T) {
	d, err := New(4, 2, 0)
	require.NoError(t, err)
	d.Reset()

	steps := 0
	done := false
	for !done {
		_, _, done = d.Step(1)
		steps++
		require.Less(t, steps, 1000)
	}

	// 0.01 accumulated 101 times is the first sum above 1
	assert.InDelta(t, 101, steps, 1)
	assert.True(t, d.IsDone())

	d.Reset()
	assert.False(t, d.IsDone())
}

func TestStepLimit(t *testing.T) {
	d, err := New(2, 2, 5)
	require.NoError(t, err)
	d.Reset()

	for i := 1; i <= 5; i++ {
		_, _, done := d.Step(0)
		assert.Equal(t, i == 5, done, "step %v", i)
	}
	assert.True(t, d.IsDone())
	assert.Equal(t, 5, d.LastTimeStep().Number)
}

func TestIllegalActionPanics(t *testing.T) {
	d, err := New(2, 2, 0)
	require.NoError(t, err)
	d.Reset()

	assert.Panics(t, func() { d.Step(2) })
	assert.Panics(t, func() { d.Step(-1) })
}

func TestSpecs(t *testing.T) {
	d, err := New(4, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, d.ObservationSpec().Dim())
	numActions, err := d.ActionSpec().NumActions()
	require.NoError(t, err)
	assert.Equal(t, 2, numActions)
}

func TestNewInvalid(t *testing.T) {
	_, err := New(0, 2, 0)
	assert.Error(t, err)
	_, err = New(2, 0, 0)
	assert.Error(t, err)
}
