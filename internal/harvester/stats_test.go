package harvester

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoscore/bfg-harvest/internal/domain"
)

func TestTemporalMean(t *testing.T) {
	t.Run("averages over time", func(t *testing.T) {
		data := [][][]float64{
			{{1, 2}, {3, 4}},
			{{3, 6}, {5, 8}},
		}
		means := temporalMean(data)
		assert.Equal(t, [][]float64{{2, 4}, {4, 6}}, means)
	})

	t.Run("skips missing steps per cell", func(t *testing.T) {
		data := [][][]float64{
			{{1, math.NaN()}},
			{{3, 10}},
		}
		means := temporalMean(data)
		assert.Equal(t, 2.0, means[0][0])
		assert.Equal(t, 10.0, means[0][1]) // only the valid step counts
	})

	t.Run("cell missing everywhere stays missing", func(t *testing.T) {
		data := [][][]float64{
			{{math.NaN()}},
			{{math.NaN()}},
		}
		means := temporalMean(data)
		assert.True(t, math.IsNaN(means[0][0]))
	})
}

func TestSelectCells(t *testing.T) {
	means := [][]float64{
		{1, math.NaN()},
		{3, 4},
	}
	area := [][]float64{
		{10, 20},
		{30, 40},
	}
	mask := [][]bool{
		{true, true},
		{false, true},
	}

	sel := selectCells(means, area, mask)
	assert.Equal(t, []float64{1, 4}, sel.values)
	assert.Equal(t, []float64{10, 40}, sel.weights)
}

func TestComputeStat(t *testing.T) {
	t.Run("uniform field", func(t *testing.T) {
		sel := selection{
			values:  []float64{7, 7, 7, 7},
			weights: []float64{1, 2, 3, 4},
		}
		for _, stat := range []domain.Statistic{domain.StatMean, domain.StatMinimum, domain.StatMaximum} {
			v, err := computeStat(stat, sel)
			require.NoError(t, err)
			assert.Equal(t, 7.0, v, "stat %s", stat)
		}
		v, err := computeStat(domain.StatVariance, sel)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	})

	t.Run("weighted mean", func(t *testing.T) {
		// Two cells, one three times the area of the other.
		sel := selection{
			values:  []float64{0, 4},
			weights: []float64{1, 3},
		}
		v, err := computeStat(domain.StatMean, sel)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, v, 1e-12)
	})

	t.Run("weighted variance", func(t *testing.T) {
		sel := selection{
			values:  []float64{0, 4},
			weights: []float64{1, 3},
		}
		// mean = 3; variance = (1*(0-3)^2 + 3*(4-3)^2) / 4 = 3
		v, err := computeStat(domain.StatVariance, sel)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, v, 1e-12)
	})

	t.Run("extrema ignore weights", func(t *testing.T) {
		sel := selection{
			values:  []float64{-2, 9, 5},
			weights: []float64{100, 0.001, 1},
		}
		minVal, err := computeStat(domain.StatMinimum, sel)
		require.NoError(t, err)
		assert.Equal(t, -2.0, minVal)

		maxVal, err := computeStat(domain.StatMaximum, sel)
		require.NoError(t, err)
		assert.Equal(t, 9.0, maxVal)
	})

	t.Run("min <= mean <= max and variance >= 0", func(t *testing.T) {
		sel := selection{
			values:  []float64{3.5, -1.25, 18, 0.5, 7},
			weights: []float64{2, 8, 0.5, 3, 1},
		}
		minVal, err := computeStat(domain.StatMinimum, sel)
		require.NoError(t, err)
		mean, err := computeStat(domain.StatMean, sel)
		require.NoError(t, err)
		maxVal, err := computeStat(domain.StatMaximum, sel)
		require.NoError(t, err)
		variance, err := computeStat(domain.StatVariance, sel)
		require.NoError(t, err)

		assert.LessOrEqual(t, minVal, mean)
		assert.LessOrEqual(t, mean, maxVal)
		assert.GreaterOrEqual(t, variance, 0.0)
	})

	t.Run("empty selection", func(t *testing.T) {
		_, err := computeStat(domain.StatMean, selection{})
		assert.ErrorIs(t, err, domain.ErrNoValidData)
	})
}
