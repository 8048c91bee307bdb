// Package harvester implements the area-weighted statistics engine: it
// merges bfg files into a single cube, resolves derived variables, builds
// region masks, and computes gridcell-area weighted statistics.
package harvester

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/geoscore/bfg-harvest/internal/domain"
)

// Engine runs harvest requests against files on disk using the process-wide
// weight grid. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	weights *WeightProvider
	dataDir string
	logger  *slog.Logger
}

// New creates an Engine. Relative request filenames resolve against dataDir
// (pass "" to take them as given). The weight provider is shared; its grid
// loads on the first harvest (or eagerly, if the caller warmed it up).
func New(weights *WeightProvider, dataDir string, logger *slog.Logger) *Engine {
	return &Engine{weights: weights, dataDir: dataDir, logger: logger}
}

func (e *Engine) resolvePaths(filenames []string) []string {
	if e.dataDir == "" {
		return filenames
	}
	resolved := make([]string, len(filenames))
	for i, name := range filenames {
		if filepath.IsAbs(name) {
			resolved[i] = name
			continue
		}
		resolved[i] = filepath.Join(e.dataDir, name)
	}
	return resolved
}

// Harvest executes one request and returns its records in deterministic
// order: variables in request order, then statistics in request order, then
// regions in name order. Any failure aborts the whole request; no partial
// results are returned.
func (e *Engine) Harvest(_ context.Context, req domain.Request) ([]domain.HarvestedRecord, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	stats, err := req.ResolvedStatistics()
	if err != nil {
		return nil, err
	}
	variables, err := req.ResolvedVariables()
	if err != nil {
		return nil, err
	}
	regions, err := req.ResolvedRegions()
	if err != nil {
		return nil, err
	}
	baseFields, err := req.BaseFields()
	if err != nil {
		return nil, err
	}

	cube, err := BuildCube(e.resolvePaths(req.Filenames), baseFields)
	if err != nil {
		return nil, err
	}

	weights, err := e.weights.Weights()
	if err != nil {
		return nil, err
	}
	if len(weights.Lat) != len(cube.Lat) || len(weights.Lon) != len(cube.Lon) {
		return nil, &domain.GridShapeMismatchError{
			File:    "gridcell area weights",
			WantLat: len(cube.Lat), WantLon: len(cube.Lon),
			GotLat: len(weights.Lat), GotLon: len(weights.Lon),
		}
	}

	masks, err := e.buildMasks(req, regions, cube)
	if err != nil {
		return nil, err
	}

	medianTime := cube.MedianTime()

	var records []domain.HarvestedRecord
	for _, variable := range variables {
		means, units, longName, err := e.resolveField(cube, variable)
		if err != nil {
			return nil, err
		}

		for _, stat := range stats {
			for i, region := range regions {
				sel := selectCells(means, weights.Area, masks[i])
				value, err := computeStat(stat, sel)
				if err != nil {
					return nil, err
				}
				records = append(records, domain.NewRecord(
					req.Filenames, stat, variable.Name, float32(value),
					units, medianTime, longName, req.SurfaceMask, region,
				))
			}
		}
	}

	e.logger.Info("harvest complete",
		"files", len(req.Filenames),
		"variables", len(variables),
		"records", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}

// buildMasks precomputes one mask per region, overlaying the land surface
// mask when requested.
func (e *Engine) buildMasks(req domain.Request, regions []domain.Region, cube *Cube) ([][][]bool, error) {
	var soilType [][]float64
	if req.SurfaceMask == domain.SurfaceMaskLand {
		field, err := cube.Field(domain.SoilTypeField)
		if err != nil {
			return nil, err
		}
		// Soil type is static; the first time step suffices.
		soilType = field.Data[0]
	}

	masks := make([][][]bool, len(regions))
	for i, region := range regions {
		mask := BuildMask(region, cube.Lat, cube.Lon)
		if soilType != nil {
			ApplyLandMask(mask, soilType)
		}
		masks[i] = mask
	}
	return masks, nil
}

// resolveField produces the temporal-mean field for a variable: stored
// fields are averaged directly, derived fields combine the temporal means of
// their base fields cell-wise. Units come from the file attributes (first
// base field for derived variables); derived long names come from the
// catalog.
func (e *Engine) resolveField(cube *Cube, spec domain.VariableSpec) ([][]float64, string, string, error) {
	if !spec.Derived {
		field, err := cube.Field(spec.Name)
		if err != nil {
			return nil, "", "", err
		}
		return temporalMean(field.Data), field.Units, field.LongName, nil
	}

	baseMeans := make([][][]float64, len(spec.Bases))
	var units string
	for i, base := range spec.Bases {
		field, err := cube.Field(base)
		if err != nil {
			return nil, "", "", err
		}
		if i == 0 {
			units = field.Units
		}
		baseMeans[i] = temporalMean(field.Data)
	}

	ny, nx := len(cube.Lat), len(cube.Lon)
	means := make([][]float64, ny)
	cell := make([]float64, len(spec.Bases))
	for y := 0; y < ny; y++ {
		row := make([]float64, nx)
		for x := 0; x < nx; x++ {
			for i := range baseMeans {
				cell[i] = baseMeans[i][y][x]
			}
			row[x] = spec.Combine(cell)
		}
		means[y] = row
	}
	return means, units, spec.LongName, nil
}
