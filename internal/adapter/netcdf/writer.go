package netcdf

import (
	"fmt"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

// DefaultTimeUnits is the time encoding written into synthetic bfg files,
// matching the epoch convention of the production output.
const DefaultTimeUnits = "hours since 1951-01-01 00:00:00"

// FieldSpec is one variable of a synthetic bfg file.
type FieldSpec struct {
	Values   [][][]float64 // [time][lat][lon]
	Units    string
	LongName string
}

// FileSpec describes a synthetic bfg file.
type FileSpec struct {
	Lat       []float64
	Lon       []float64
	Times     []time.Time
	TimeUnits string // defaults to DefaultTimeUnits
	Fields    map[string]FieldSpec
}

// Write creates a bfg-shaped NetCDF file from the spec. Used by tests and by
// cmd/genfixtures; production files come from the forecast model.
func Write(path string, spec FileSpec) error {
	units := spec.TimeUnits
	if units == "" {
		units = DefaultTimeUnits
	}
	step, epoch, err := parseTimeUnits(units)
	if err != nil {
		return err
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer ds.Close()

	timeDim, err := ds.AddDim("time", uint64(len(spec.Times)))
	if err != nil {
		return err
	}
	latDim, err := ds.AddDim("grid_yt", uint64(len(spec.Lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("grid_xt", uint64(len(spec.Lon)))
	if err != nil {
		return err
	}

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	if err := timeVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}
	if err := timeVar.Attr("calendar").WriteBytes([]byte("standard")); err != nil {
		return err
	}
	latVar, err := ds.AddVar("grid_yt", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("grid_xt", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}

	fieldDims := []netcdf.Dim{timeDim, latDim, lonDim}
	fieldVars := make(map[string]netcdf.Var, len(spec.Fields))
	for name, field := range spec.Fields {
		v, err := ds.AddVar(name, netcdf.DOUBLE, fieldDims)
		if err != nil {
			return fmt.Errorf("add variable %q: %w", name, err)
		}
		if field.Units != "" {
			if err := v.Attr("units").WriteBytes([]byte(field.Units)); err != nil {
				return err
			}
		}
		if field.LongName != "" {
			if err := v.Attr("long_name").WriteBytes([]byte(field.LongName)); err != nil {
				return err
			}
		}
		fieldVars[name] = v
	}

	if err := ds.EndDef(); err != nil {
		return err
	}

	offsets := make([]float64, len(spec.Times))
	for i, t := range spec.Times {
		offsets[i] = float64(t.Sub(epoch)) / float64(step)
	}
	if err := timeVar.WriteFloat64s(offsets); err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(spec.Lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(spec.Lon); err != nil {
		return err
	}

	for name, field := range spec.Fields {
		flat, err := flatten3D(field.Values, len(spec.Times), len(spec.Lat), len(spec.Lon))
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		if err := fieldVars[name].WriteFloat64s(flat); err != nil {
			return fmt.Errorf("write variable %q: %w", name, err)
		}
	}

	return nil
}

// WriteWeights creates a gridcell-area reference file with an "area"
// variable over (grid_yt, grid_xt).
func WriteWeights(path string, lat, lon []float64, area [][]float64) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer ds.Close()

	latDim, err := ds.AddDim("grid_yt", uint64(len(lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("grid_xt", uint64(len(lon)))
	if err != nil {
		return err
	}
	latVar, err := ds.AddVar("grid_yt", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("grid_xt", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	areaVar, err := ds.AddVar("area", netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}
	if err := areaVar.Attr("units").WriteBytes([]byte("m**2")); err != nil {
		return err
	}
	if err := ds.EndDef(); err != nil {
		return err
	}

	if err := latVar.WriteFloat64s(lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return err
	}
	flat, err := flatten2D(area, len(lat), len(lon))
	if err != nil {
		return err
	}
	return areaVar.WriteFloat64s(flat)
}

func flatten3D(values [][][]float64, nt, ny, nx int) ([]float64, error) {
	if len(values) != nt {
		return nil, fmt.Errorf("have %d time steps, expected %d", len(values), nt)
	}
	flat := make([]float64, 0, nt*ny*nx)
	for t := range values {
		plane, err := flatten2D(values[t], ny, nx)
		if err != nil {
			return nil, err
		}
		flat = append(flat, plane...)
	}
	return flat, nil
}

func flatten2D(values [][]float64, ny, nx int) ([]float64, error) {
	if len(values) != ny {
		return nil, fmt.Errorf("have %d rows, expected %d", len(values), ny)
	}
	flat := make([]float64, 0, ny*nx)
	for y := range values {
		if len(values[y]) != nx {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", y, len(values[y]), nx)
		}
		flat = append(flat, values[y]...)
	}
	return flat, nil
}
