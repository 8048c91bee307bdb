package harvester

import (
	"fmt"
	"sort"
	"time"

	"github.com/geoscore/bfg-harvest/internal/adapter/netcdf"
	"github.com/geoscore/bfg-harvest/internal/domain"
)

// CubeField is one stored variable of a merged cube, in merged-time order.
type CubeField struct {
	Data     [][][]float64 // [time][lat][lon], NaN marks missing cells
	Units    string
	LongName string
}

// Cube is the merged view of a set of bfg files: a single deduplicated,
// strictly increasing timeline with each required stored field spanning it.
// A cube is owned by one harvest request and discarded afterwards.
type Cube struct {
	Filenames []string
	Times     []time.Time
	Lat       []float64
	Lon       []float64

	fields map[string]*CubeField
}

// Field returns a stored field of the cube by name.
func (c *Cube) Field(name string) (*CubeField, error) {
	f, ok := c.fields[name]
	if !ok {
		return nil, fmt.Errorf("field %q not loaded into cube", name)
	}
	return f, nil
}

// timeSlice is one timestamped layer of every required field, tagged with
// its source position so first-seen wins deterministically on duplicates.
type timeSlice struct {
	ts     time.Time
	planes map[string][][]float64
}

// BuildCube opens every input file, verifies axes and required fields, and
// merges the per-file time steps: concatenated, sorted ascending, first
// occurrence kept on exact-timestamp collision. File handles never outlive
// the call.
func BuildCube(filenames []string, fields []string) (*Cube, error) {
	if len(filenames) == 0 {
		return nil, domain.ErrEmptyInput
	}

	cube := &Cube{
		Filenames: filenames,
		fields:    make(map[string]*CubeField, len(fields)),
	}
	meta := make(map[string]*CubeField, len(fields))
	var slices []timeSlice

	for _, filename := range filenames {
		f, err := netcdf.Open(filename)
		if err != nil {
			return nil, err
		}

		if cube.Lat == nil {
			cube.Lat, cube.Lon = f.Lat, f.Lon
		} else if len(f.Lat) != len(cube.Lat) || len(f.Lon) != len(cube.Lon) {
			f.Close()
			return nil, &domain.GridShapeMismatchError{
				File:    filename,
				WantLat: len(cube.Lat), WantLon: len(cube.Lon),
				GotLat: len(f.Lat), GotLon: len(f.Lon),
			}
		}

		fileFields := make(map[string]*netcdf.Field, len(fields))
		for _, name := range fields {
			if !f.HasVariable(name) {
				f.Close()
				return nil, &domain.MissingVariableError{Field: name, File: filename}
			}
			field, err := f.ReadField(name)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("%s: %w", filename, err)
			}
			fileFields[name] = field
			if _, ok := meta[name]; !ok {
				meta[name] = &CubeField{Units: field.Units, LongName: field.LongName}
			}
		}

		for t, ts := range f.Times {
			planes := make(map[string][][]float64, len(fields))
			for name, field := range fileFields {
				planes[name] = field.Data[t]
			}
			slices = append(slices, timeSlice{ts: ts, planes: planes})
		}

		f.Close()
	}

	// Stable sort keeps request order for equal timestamps, so the first
	// occurrence survives deduplication.
	sort.SliceStable(slices, func(i, j int) bool { return slices[i].ts.Before(slices[j].ts) })

	merged := slices[:0]
	for _, s := range slices {
		if len(merged) > 0 && s.ts.Equal(merged[len(merged)-1].ts) {
			continue
		}
		merged = append(merged, s)
	}
	if len(merged) == 0 {
		return nil, domain.ErrNoTimeSteps
	}

	cube.Times = make([]time.Time, len(merged))
	for _, name := range fields {
		cf := meta[name]
		cf.Data = make([][][]float64, len(merged))
		cube.fields[name] = cf
	}
	for i, s := range merged {
		cube.Times[i] = s.ts
		for name, plane := range s.planes {
			cube.fields[name].Data[i] = plane
		}
	}

	return cube, nil
}

// MedianTime is the representative timestamp of the cube: the midpoint
// between its earliest and latest retained time steps.
func (c *Cube) MedianTime() time.Time {
	first, last := c.Times[0], c.Times[len(c.Times)-1]
	return first.Add(last.Sub(first) / 2)
}
