package domain

import "math"

// SoilTypeField is the stored field used for land/ocean/ice surface masking.
// It is not harvestable itself.
const SoilTypeField = "sotyp"

// Soil type codes marking non-land cells.
const (
	SoilTypeOcean = 0
	SoilTypeIce   = 16
)

// VariableSpec describes one harvestable variable. Stored variables read a
// single field; derived variables combine several stored fields cell-wise
// with signed unit coefficients.
type VariableSpec struct {
	Name     string
	Derived  bool
	Bases    []string  // stored fields required, in combination order
	Coeffs   []float64 // +1/-1 per base field
	LongName string    // derived only; stored variables report the file attribute
}

// storedVariables enumerates the fields harvestable directly from bfg files.
var storedVariables = []string{
	"prateb_ave", // bucket surface precipitation rate
	"tmp2m",      // 2m air temperature
	"tmpsfc",     // surface temperature
	"dswrf_avetoa",
	"uswrf_avetoa",
	"ulwrf_avetoa",
	"dswrf_ave",
	"dlwrf_ave",
	"ulwrf_ave",
	"uswrf_ave",
	"shtfl_ave",
	"lhtfl_ave",
	"soilm", // total column soil moisture content
	"snod",  // surface snow depth
}

var derivedVariables = map[string]VariableSpec{
	"netrf_avetoa": {
		Name:     "netrf_avetoa",
		Derived:  true,
		Bases:    []string{"dswrf_avetoa", "uswrf_avetoa", "ulwrf_avetoa"},
		Coeffs:   []float64{1, -1, -1},
		LongName: "top of atmosphere net radiative energy flux",
	},
	"netef_ave": {
		Name:     "netef_ave",
		Derived:  true,
		Bases:    []string{"dswrf_ave", "dlwrf_ave", "ulwrf_ave", "uswrf_ave", "shtfl_ave", "lhtfl_ave"},
		Coeffs:   []float64{1, 1, -1, -1, -1, -1},
		LongName: "surface energy balance",
	},
}

var storedSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(storedVariables))
	for _, v := range storedVariables {
		m[v] = struct{}{}
	}
	return m
}()

// ResolveVariable maps a requested name onto its VariableSpec. Names outside
// the closed stored+derived set yield an UnknownVariableError.
func ResolveVariable(name string) (VariableSpec, error) {
	if spec, ok := derivedVariables[name]; ok {
		return spec, nil
	}
	if _, ok := storedSet[name]; ok {
		return VariableSpec{Name: name, Bases: []string{name}, Coeffs: []float64{1}}, nil
	}
	return VariableSpec{}, &UnknownVariableError{Name: name}
}

// Combine applies the signed combination to one cell's base values, in Bases
// order. Any missing (NaN) base value makes the result missing.
func (s VariableSpec) Combine(values []float64) float64 {
	var sum float64
	for i, v := range values {
		if math.IsNaN(v) {
			return math.NaN()
		}
		sum += s.Coeffs[i] * v
	}
	return sum
}
