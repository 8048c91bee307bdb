package domain

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Statistic identifies one of the supported summary statistics.
type Statistic string

const (
	StatMean     Statistic = "mean"
	StatVariance Statistic = "variance"
	StatMinimum  Statistic = "minimum"
	StatMaximum  Statistic = "maximum"
)

// ParseStatistic validates a statistic name from a request.
func ParseStatistic(name string) (Statistic, error) {
	switch s := Statistic(name); s {
	case StatMean, StatVariance, StatMinimum, StatMaximum:
		return s, nil
	default:
		return "", &InvalidStatisticError{Name: name}
	}
}

// SurfaceMaskLand restricts statistics to land cells.
const SurfaceMaskLand = "land"

// SurfaceMaskNone marks records computed without surface masking.
const SurfaceMaskNone = "none"

var validate = validator.New()

// Request is a validated harvest request. The JSON field names form the
// external request schema.
type Request struct {
	HarvesterName string                `json:"harvester_name" validate:"required"`
	Filenames     []string              `json:"filenames" validate:"dive,required"`
	Statistics    []string              `json:"statistic" validate:"required,min=1"`
	Variables     []string              `json:"variable" validate:"required,min=1"`
	Regions       map[string]RegionSpec `json:"region,omitempty"`
	SurfaceMask   string                `json:"surface_mask,omitempty" validate:"omitempty,oneof=land"`
}

// Validate checks the request against the closed statistic, variable, and
// region schemas. It resolves nothing; use ResolvedStatistics,
// ResolvedVariables, and ResolvedRegions after a successful Validate.
func (r *Request) Validate() error {
	if len(r.Filenames) == 0 {
		return ErrEmptyInput
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("malformed harvest request: %w", err)
	}
	if _, err := r.ResolvedStatistics(); err != nil {
		return err
	}
	if _, err := r.ResolvedVariables(); err != nil {
		return err
	}
	if _, err := r.ResolvedRegions(); err != nil {
		return err
	}
	return nil
}

// ResolvedStatistics returns the requested statistics in request order.
func (r *Request) ResolvedStatistics() ([]Statistic, error) {
	stats := make([]Statistic, 0, len(r.Statistics))
	for _, name := range r.Statistics {
		s, err := ParseStatistic(name)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// ResolvedVariables returns the requested variable specs in request order.
func (r *Request) ResolvedVariables() ([]VariableSpec, error) {
	specs := make([]VariableSpec, 0, len(r.Variables))
	for _, name := range r.Variables {
		spec, err := ResolveVariable(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ResolvedRegions returns the requested regions resolved against the default
// bounds, ordered by region name so record output is deterministic (JSON
// objects carry no order). With no regions requested it returns the single
// global region.
func (r *Request) ResolvedRegions() ([]Region, error) {
	if len(r.Regions) == 0 {
		return []Region{GlobalRegion()}, nil
	}
	names := make([]string, 0, len(r.Regions))
	for name := range r.Regions {
		names = append(names, name)
	}
	sort.Strings(names)

	regions := make([]Region, 0, len(names))
	for _, name := range names {
		region, err := NewRegion(name, r.Regions[name])
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// BaseFields returns the set of stored fields the request needs from every
// input file, including derived-variable bases and the soil type field when
// a surface mask is requested.
func (r *Request) BaseFields() ([]string, error) {
	specs, err := r.ResolvedVariables()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var fields []string
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			fields = append(fields, name)
		}
	}
	for _, spec := range specs {
		for _, base := range spec.Bases {
			add(base)
		}
	}
	if r.SurfaceMask == SurfaceMaskLand {
		add(SoilTypeField)
	}
	return fields, nil
}
