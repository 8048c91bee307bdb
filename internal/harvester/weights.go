package harvester

import (
	"math"
	"sync"

	"github.com/geoscore/bfg-harvest/internal/adapter/netcdf"
	"github.com/geoscore/bfg-harvest/internal/domain"
)

// AreaVariable is the gridcell-area field name in the weights reference file.
const AreaVariable = "area"

// Weights is the immutable per-cell surface area grid shared by all harvest
// requests in a process.
type Weights struct {
	Lat  []float64
	Lon  []float64
	Area [][]float64 // [lat][lon], non-negative
}

// WeightProvider loads the gridcell-area reference file at most once and
// publishes the result to every caller. Concurrent first callers observe a
// single load.
type WeightProvider struct {
	path string

	once    sync.Once
	weights *Weights
	err     error
}

// NewWeightProvider creates a provider for the reference file at path. The
// file is not touched until the first Weights call.
func NewWeightProvider(path string) *WeightProvider {
	return &WeightProvider{path: path}
}

// Weights returns the cached area grid, loading it on first use. Idempotent
// and side-effect-free after the first call.
func (p *WeightProvider) Weights() (*Weights, error) {
	p.once.Do(p.load)
	return p.weights, p.err
}

func (p *WeightProvider) load() {
	f, err := netcdf.OpenSpatial(p.path)
	if err != nil {
		p.err = &domain.ConfigurationError{Path: p.path, Reason: "cannot open reference file", Err: err}
		return
	}
	defer f.Close()

	area, err := f.ReadGrid2D(AreaVariable)
	if err != nil {
		p.err = &domain.ConfigurationError{Path: p.path, Reason: "cannot read area variable", Err: err}
		return
	}

	for _, row := range area {
		for _, w := range row {
			if math.IsNaN(w) || w < 0 {
				p.err = &domain.ConfigurationError{Path: p.path, Reason: "area grid contains negative or NaN weights"}
				return
			}
		}
	}

	p.weights = &Weights{Lat: f.Lat, Lon: f.Lon, Area: area}
}
