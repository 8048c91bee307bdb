package harvester

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geoscore/bfg-harvest/internal/adapter/netcdf"
)

// Synthetic grid shared by the harvester tests. The longitudes are chosen so
// the circular-longitude wrap case has points on both sides of the seam.
var (
	fixtureLat = []float64{-45, 0, 45}
	fixtureLon = []float64{0, 150, 250, 350}
)

func fixtureTimes(n int) []time.Time {
	base := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * 6 * time.Hour)
	}
	return times
}

// constPlanes builds an nt-step cube where every cell holds c.
func constPlanes(nt int, c float64) [][][]float64 {
	cube := make([][][]float64, nt)
	for t := range cube {
		cube[t] = constPlane(c)
	}
	return cube
}

func constPlane(c float64) [][]float64 {
	plane := make([][]float64, len(fixtureLat))
	for y := range plane {
		row := make([]float64, len(fixtureLon))
		for x := range row {
			row[x] = c
		}
		plane[y] = row
	}
	return plane
}

// writeBFG writes a synthetic bfg file into dir and returns its path.
func writeBFG(t *testing.T, dir, name string, times []time.Time, fields map[string]netcdf.FieldSpec) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, netcdf.Write(path, netcdf.FileSpec{
		Lat:    fixtureLat,
		Lon:    fixtureLon,
		Times:  times,
		Fields: fields,
	}))
	return path
}

// writeUniformWeights writes a weights file with every cell area equal to w.
func writeUniformWeights(t *testing.T, dir string, w float64) string {
	t.Helper()
	area := make([][]float64, len(fixtureLat))
	for y := range area {
		row := make([]float64, len(fixtureLon))
		for x := range row {
			row[x] = w
		}
		area[y] = row
	}
	return writeWeights(t, dir, area)
}

func writeWeights(t *testing.T, dir string, area [][]float64) string {
	t.Helper()
	path := filepath.Join(dir, "gridcell-area.nc")
	require.NoError(t, netcdf.WriteWeights(path, fixtureLat, fixtureLon, area))
	return path
}
