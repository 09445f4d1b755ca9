package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/minidqn/timestep"
)

// episode returns the TimeSteps of an episode with the given rewards
func episode(rewards ...float64) []ts.TimeStep {
	obs := mat.NewVecDense(1, nil)
	steps := []ts.TimeStep{ts.New(ts.First, 0, obs, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, obs, i+1))
	}
	return steps
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(filename)

	for _, step := range episode(1, 0, 1, 1) {
		r.Track(step)
	}
	for _, step := range episode(0.5, -2) {
		r.Track(step)
	}
	assert.Equal(t, []float64{3, -1.5}, r.Data())

	require.NoError(t, r.Save())
	data, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -1.5}, data)
}

func TestReturnPanicsOnSkippedStep(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "return.bin"))
	steps := episode(1, 1, 1)

	r.Track(steps[0])
	assert.Panics(t, func() { r.Track(steps[2]) })
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "length.bin")
	e := NewEpisodeLength(filename)

	for _, step := range episode(1, 1, 1) {
		e.Track(step)
	}
	for _, step := range episode(1) {
		e.Track(step)
	}
	assert.Equal(t, []float64{3, 1}, e.Data())

	require.NoError(t, e.Save())
	data, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, data)
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "none.bin"))
	assert.Error(t, err)
}

func TestPlot(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.png")
	require.NoError(t, Plot([]float64{1, 3, 2, 5}, "Return", "Return",
		filename))

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, Plot(nil, "Return", "Return", filename))
}
