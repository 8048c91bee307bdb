// Package netcdf reads background-forecast gridded (bfg) NetCDF files and
// the gridcell-area reference file, and writes synthetic fixtures for tests
// and local runs.
package netcdf

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

// Axis variable name candidates, most specific first. bfg output names its
// spatial axes grid_yt/grid_xt; the generic fallbacks cover reference files
// written with conventional names.
var (
	latNames  = []string{"grid_yt", "latitude", "lat"}
	lonNames  = []string{"grid_xt", "longitude", "lon"}
	timeNames = []string{"time"}
)

// Field is one stored variable spanning the file's time steps, with
// missing/fill cells replaced by NaN.
type Field struct {
	Data     [][][]float64 // [time][lat][lon]
	Units    string
	LongName string
}

// File is an open bfg NetCDF file with its coordinate axes decoded.
type File struct {
	Path  string
	Lat   []float64
	Lon   []float64
	Times []time.Time

	ds netcdf.Dataset
}

// Open opens a bfg file and decodes its latitude, longitude, and time axes.
// The caller owns the handle and must Close it.
func Open(path string) (*File, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	f := &File{Path: path, ds: ds}

	if f.Lat, err = readAxis(ds, latNames); err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: latitude axis: %w", path, err)
	}
	if f.Lon, err = readAxis(ds, lonNames); err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: longitude axis: %w", path, err)
	}
	if f.Times, err = readTimeAxis(ds); err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: time axis: %w", path, err)
	}

	return f, nil
}

// OpenSpatial opens a file that carries only spatial axes, such as the
// gridcell-area reference file. Times is left empty.
func OpenSpatial(path string) (*File, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	f := &File{Path: path, ds: ds}

	if f.Lat, err = readAxis(ds, latNames); err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: latitude axis: %w", path, err)
	}
	if f.Lon, err = readAxis(ds, lonNames); err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: longitude axis: %w", path, err)
	}

	return f, nil
}

// Close releases the underlying NetCDF handle.
func (f *File) Close() error { return f.ds.Close() }

// HasVariable reports whether the file stores the named variable.
func (f *File) HasVariable(name string) bool {
	_, err := f.ds.Var(name)
	return err == nil
}

// ReadField reads a (time, lat, lon) variable, replacing fill and missing
// values with NaN and decoding the units and long_name attributes.
func (f *File) ReadField(name string) (*Field, error) {
	v, err := f.ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("variable %q: dimensions: %w", name, err)
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("variable %q: expected (time, lat, lon), got %d dimensions", name, len(dims))
	}

	nt, ny, nx := len(f.Times), len(f.Lat), len(f.Lon)
	if err := checkDimLens(dims, nt, ny, nx); err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	flat, err := readNumeric(v, nt*ny*nx)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	if fill, ok := fillValue(v); ok {
		for i, val := range flat {
			if val == fill {
				flat[i] = math.NaN()
			}
		}
	}
	for i, val := range flat {
		if math.IsInf(val, 0) {
			flat[i] = math.NaN()
		}
	}

	data := make([][][]float64, nt)
	for t := 0; t < nt; t++ {
		data[t] = make([][]float64, ny)
		for y := 0; y < ny; y++ {
			data[t][y] = flat[(t*ny+y)*nx : (t*ny+y+1)*nx : (t*ny+y+1)*nx]
		}
	}

	return &Field{
		Data:     data,
		Units:    charAttr(v, "units"),
		LongName: charAttr(v, "long_name"),
	}, nil
}

// ReadGrid2D reads a purely spatial (lat, lon) variable, such as the
// gridcell area field of the weights reference file.
func (f *File) ReadGrid2D(name string) ([][]float64, error) {
	v, err := f.ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("variable %q: dimensions: %w", name, err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("variable %q: expected (lat, lon), got %d dimensions", name, len(dims))
	}

	ny, nx := len(f.Lat), len(f.Lon)
	if err := checkDimLens(dims, ny, nx); err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	flat, err := readNumeric(v, ny*nx)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	grid := make([][]float64, ny)
	for y := 0; y < ny; y++ {
		grid[y] = flat[y*nx : (y+1)*nx : (y+1)*nx]
	}
	return grid, nil
}

func checkDimLens(dims []netcdf.Dim, want ...int) error {
	for i, dim := range dims {
		n, err := dim.Len()
		if err != nil {
			return fmt.Errorf("dimension %d length: %w", i, err)
		}
		if n != uint64(want[i]) {
			return fmt.Errorf("dimension %d has length %d, expected %d", i, n, want[i])
		}
	}
	return nil
}

// readAxis reads the first present 1-D coordinate variable from candidates.
func readAxis(ds netcdf.Dataset, candidates []string) ([]float64, error) {
	for _, name := range candidates {
		v, err := ds.Var(name)
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil || len(dims) != 1 {
			continue
		}
		n, err := dims[0].Len()
		if err != nil {
			continue
		}
		return readNumeric(v, int(n))
	}
	return nil, fmt.Errorf("coordinate variable not found (tried %v)", candidates)
}

// readTimeAxis reads the time coordinate and decodes it against its
// "<unit> since <epoch>" units attribute.
func readTimeAxis(ds netcdf.Dataset) ([]time.Time, error) {
	var v netcdf.Var
	var found bool
	for _, name := range timeNames {
		if tv, err := ds.Var(name); err == nil {
			v, found = tv, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("coordinate variable not found (tried %v)", timeNames)
	}

	dims, err := v.Dims()
	if err != nil || len(dims) != 1 {
		return nil, fmt.Errorf("time axis must be 1-D")
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	raw, err := readNumeric(v, int(n))
	if err != nil {
		return nil, err
	}

	step, epoch, err := parseTimeUnits(charAttr(v, "units"))
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, len(raw))
	for i, offset := range raw {
		times[i] = epoch.Add(time.Duration(offset * float64(step))).UTC()
	}
	return times, nil
}

// parseTimeUnits decodes a CF-style "<unit> since <epoch>" string, e.g.
// "hours since 1951-01-01 00:00:00".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("time units %q: expected \"<unit> since <epoch>\"", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds", "second":
		step = time.Second
	case "minutes", "minute":
		step = time.Minute
	case "hours", "hour":
		step = time.Hour
	case "days", "day":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("time units %q: unsupported unit", units)
	}

	epochStr := strings.TrimSpace(parts[1])
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if epoch, err := time.Parse(layout, epochStr); err == nil {
			return step, epoch.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("time units %q: unparseable epoch", units)
}

// readNumeric reads a numeric variable of the given total length as float64.
func readNumeric(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("variable type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		out := make([]float64, total)
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
		return out, nil
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported variable type %v", t)
	}
}

// fillValue returns the _FillValue or missing_value attribute, if any.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		n, err := a.Len()
		if err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
	}
	return 0, false
}

// charAttr reads a character attribute, returning "" when absent.
func charAttr(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}
