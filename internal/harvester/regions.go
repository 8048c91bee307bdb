package harvester

import (
	"math"

	"github.com/geoscore/bfg-harvest/internal/domain"
)

// BuildMask produces a boolean mask over the spatial grid selecting the
// cells inside the region, with the circular-longitude wrap handled by the
// region itself.
func BuildMask(region domain.Region, lat, lon []float64) [][]bool {
	mask := make([][]bool, len(lat))
	for y, la := range lat {
		row := make([]bool, len(lon))
		for x, lo := range lon {
			row[x] = region.Contains(la, lo)
		}
		mask[y] = row
	}
	return mask
}

// ApplyLandMask clears mask cells that are ocean (sotyp 0) or ice
// (sotyp 16), or whose soil type is missing. soilType is the first time
// step of the sotyp field.
func ApplyLandMask(mask [][]bool, soilType [][]float64) {
	for y := range mask {
		for x := range mask[y] {
			if !mask[y][x] {
				continue
			}
			st := soilType[y][x]
			if math.IsNaN(st) || st == domain.SoilTypeOcean || st == domain.SoilTypeIce {
				mask[y][x] = false
			}
		}
	}
}
