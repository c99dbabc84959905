package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestObsDict_FlattenWalksKeysInSortedOrder(t *testing.T) {
	obs := ObsDict{
		"b": mat.NewDense(2, 1, []float64{3, 30}),
		"a": mat.NewDense(2, 2, []float64{1, 2, 10, 20}),
	}
	flat := obs.Flatten()
	require.NotNil(t, flat)

	rows, cols := flat.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 3, cols)
	assert.Equal(t, []float64{1, 2, 3}, flat.RawRowView(0))
	assert.Equal(t, []float64{10, 20, 30}, flat.RawRowView(1))
}

func TestObsDict_FlattenRecursesIntoNestedDicts(t *testing.T) {
	obs := ObsDict{
		"agent": ObsDict{
			"qpos": mat.NewDense(1, 2, []float64{1, 2}),
			"qvel": mat.NewDense(1, 2, []float64{3, 4}),
		},
		"extra": ObsDict{
			"tcp_pos": mat.NewDense(1, 3, []float64{5, 6, 7}),
		},
	}
	flat := obs.Flatten()
	require.NotNil(t, flat)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7}, flat.RawRowView(0))
}

func TestObsDict_FlattenEmptyIsNil(t *testing.T) {
	assert.Nil(t, ObsDict{}.Flatten())
}
