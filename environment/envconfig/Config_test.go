package envconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/minidqn/environment/cartpole"
	"github.com/samuelfneumann/minidqn/environment/drift"
)

func TestCreateDrift(t *testing.T) {
	e, err := Default().Create(0)
	require.NoError(t, err)
	require.IsType(t, &drift.Drift{}, e)

	assert.Equal(t, 4, e.ObservationSpec().Dim())
	n, err := e.ActionSpec().NumActions()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCreateCartpole(t *testing.T) {
	e, err := NewConfig(Cartpole, Balance, 0, 0, 200).Create(3)
	require.NoError(t, err)
	require.IsType(t, &cartpole.Cartpole{}, e)
	assert.Equal(t, 4, e.Reset().Len())
}

func TestInvalidConfigs(t *testing.T) {
	configs := []Config{
		NewConfig("Acrobot", "", 1, 1, 0),
		NewConfig(Drift, Balance, 4, 2, 0),
		NewConfig(Drift, DriftTask, 0, 2, 0),
		NewConfig(Cartpole, DriftTask, 0, 0, 0),
	}

	for _, c := range configs {
		_, err := c.Create(0)
		assert.Error(t, err, "%+v", c)
	}
}

func TestJSON(t *testing.T) {
	data := []byte(`{"Environment": "Drift", "Features": 3, "Actions": 4,
		"EpisodeCutoff": 50}`)

	var c Config
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, NewConfig(Drift, "", 3, 4, 50), c)

	e, err := c.Create(0)
	require.NoError(t, err)
	assert.Equal(t, 3, e.ObservationSpec().Dim())
}
