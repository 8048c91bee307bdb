package harvester

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/geoscore/bfg-harvest/internal/domain"
)

// temporalMean reduces a (time, lat, lon) field to its per-cell mean over
// time. Missing time steps are skipped per cell, so every valid step
// contributes equally; a cell missing at every step stays missing.
func temporalMean(data [][][]float64) [][]float64 {
	ny := len(data[0])
	nx := len(data[0][0])

	means := make([][]float64, ny)
	for y := 0; y < ny; y++ {
		row := make([]float64, nx)
		for x := 0; x < nx; x++ {
			var sum float64
			var n int
			for t := range data {
				v := data[t][y][x]
				if math.IsNaN(v) {
					continue
				}
				sum += v
				n++
			}
			if n == 0 {
				row[x] = math.NaN()
			} else {
				row[x] = sum / float64(n)
			}
		}
		means[y] = row
	}
	return means
}

// selection is the flattened population of valid, in-region cells with their
// area weights.
type selection struct {
	values  []float64
	weights []float64
}

// selectCells gathers the masked, non-missing cells of a temporal-mean field
// together with their raw area weights.
func selectCells(means [][]float64, area [][]float64, mask [][]bool) selection {
	var sel selection
	for y := range means {
		for x := range means[y] {
			if !mask[y][x] {
				continue
			}
			v := means[y][x]
			if math.IsNaN(v) {
				continue
			}
			sel.values = append(sel.values, v)
			sel.weights = append(sel.weights, area[y][x])
		}
	}
	return sel
}

// computeStat evaluates one statistic over a selection. Mean and variance
// weight each cell by its share of the selected surface area (weights
// renormalized to sum to 1 over the selection); minimum and maximum are
// unweighted order statistics. Accumulation stays in float64; callers reduce
// to float32 at the output boundary.
func computeStat(stat domain.Statistic, sel selection) (float64, error) {
	if len(sel.values) == 0 {
		return 0, domain.ErrNoValidData
	}

	switch stat {
	case domain.StatMean:
		return weightedMean(sel), nil
	case domain.StatVariance:
		// Weighted population variance about the weighted mean, with the
		// sum of weights as denominator.
		mean := weightedMean(sel)
		var sumSq float64
		for i, v := range sel.values {
			d := v - mean
			sumSq += sel.weights[i] * d * d
		}
		return sumSq / floats.Sum(sel.weights), nil
	case domain.StatMinimum:
		return floats.Min(sel.values), nil
	case domain.StatMaximum:
		return floats.Max(sel.values), nil
	default:
		return 0, &domain.InvalidStatisticError{Name: string(stat)}
	}
}

func weightedMean(sel selection) float64 {
	return floats.Dot(sel.weights, sel.values) / floats.Sum(sel.weights)
}
