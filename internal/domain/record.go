package domain

import "time"

// HarvestedRecord is one (variable, statistic, region) outcome. Immutable
// once constructed; the JSON form is what downstream consumers store.
type HarvestedRecord struct {
	Filenames   []string  `json:"filenames"`
	Statistic   Statistic `json:"statistic"`
	Variable    string    `json:"variable"`
	Value       float32   `json:"value"`
	Units       string    `json:"units,omitempty"`
	MedianTime  time.Time `json:"median_time"`
	LongName    string    `json:"long_name"`
	SurfaceMask string    `json:"surface_mask"`
	Region      Region    `json:"region"`
	HarvestedAt time.Time `json:"harvested_at"`
}

// NewRecord assembles a record and stamps it with the package clock. Pure
// packaging; the value has already been reduced to float32 by the caller.
func NewRecord(filenames []string, stat Statistic, variable string, value float32,
	units string, medianTime time.Time, longName, surfaceMask string, region Region) HarvestedRecord {
	if surfaceMask == "" {
		surfaceMask = SurfaceMaskNone
	}
	return HarvestedRecord{
		Filenames:   filenames,
		Statistic:   stat,
		Variable:    variable,
		Value:       value,
		Units:       units,
		MedianTime:  medianTime,
		LongName:    longName,
		SurfaceMask: surfaceMask,
		Region:      region,
		HarvestedAt: clock.Now().UTC(),
	}
}
