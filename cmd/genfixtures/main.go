// Command genfixtures writes synthetic bfg files and a matching gridcell
// area weights file for local development and demos. The generated fields
// carry plausible magnitudes and a smooth latitude dependence so harvested
// statistics look like real model output.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -out data/fixtures \
//	  -files 4 -steps 4 -lat 32 -lon 64
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/geoscore/bfg-harvest/internal/adapter/netcdf"
)

// fieldDef gives each generated field a baseline, a pole-to-equator spread,
// and a noise amplitude.
type fieldDef struct {
	name     string
	units    string
	longName string
	base     float64
	spread   float64
	noise    float64
}

var fieldDefs = []fieldDef{
	{"tmp2m", "K", "2m air temperature", 258, 40, 2},
	{"tmpsfc", "K", "surface temperature", 255, 45, 2},
	{"prateb_ave", "kg/m**2/s", "bucket surface precipitation rate", 2e-5, 3e-5, 1e-5},
	{"dswrf_avetoa", "W/m**2", "averaged top of atmosphere downward short wave flux", 200, 220, 10},
	{"uswrf_avetoa", "W/m**2", "averaged top of atmosphere upward short wave flux", 90, 30, 5},
	{"ulwrf_avetoa", "W/m**2", "averaged top of atmosphere upward long wave flux", 200, 60, 5},
	{"dswrf_ave", "W/m**2", "averaged surface downward short wave flux", 150, 130, 10},
	{"dlwrf_ave", "W/m**2", "averaged surface downward long wave flux", 280, 100, 10},
	{"ulwrf_ave", "W/m**2", "averaged surface upward long wave flux", 330, 100, 10},
	{"uswrf_ave", "W/m**2", "averaged surface upward short wave flux", 30, 20, 3},
	{"shtfl_ave", "W/m**2", "averaged surface sensible heat flux", 15, 20, 5},
	{"lhtfl_ave", "W/m**2", "averaged surface latent heat flux", 60, 50, 10},
	{"soilm", "kg/m**2", "total column soil moisture content", 500, 100, 30},
	{"snod", "m", "surface snow depth", 0.05, 0.3, 0.02},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/fixtures", "output directory")
	files := flag.Int("files", 4, "number of bfg files")
	steps := flag.Int("steps", 4, "time steps per file")
	nlat := flag.Int("lat", 32, "latitude points")
	nlon := flag.Int("lon", 64, "longitude points")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(*seed))

	lat := axis(-90+180.0/float64(*nlat)/2, 180.0/float64(*nlat), *nlat)
	lon := axis(0, 360.0/float64(*nlon), *nlon)

	weightsPath := filepath.Join(*out, "gridcell-area.nc")
	if err := netcdf.WriteWeights(weightsPath, lat, lon, areaGrid(lat, lon)); err != nil {
		return err
	}
	log.Printf("wrote %s", weightsPath)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	step := 6 * time.Hour

	for f := 0; f < *files; f++ {
		times := make([]time.Time, *steps)
		for i := range times {
			times[i] = start.Add(time.Duration(f**steps+i) * step)
		}

		fields := make(map[string]netcdf.FieldSpec, len(fieldDefs)+1)
		for _, def := range fieldDefs {
			fields[def.name] = netcdf.FieldSpec{
				Values:   genField(def, lat, lon, *steps, rng),
				Units:    def.units,
				LongName: def.longName,
			}
		}
		fields["sotyp"] = netcdf.FieldSpec{
			Values:   soilTypeField(lat, lon, *steps),
			LongName: "soil type",
		}

		hours := int(times[len(times)-1].Sub(start).Hours())
		path := filepath.Join(*out, fmt.Sprintf("bfg_fhr%03d.nc", hours))
		if err := netcdf.Write(path, netcdf.FileSpec{Lat: lat, Lon: lon, Times: times, Fields: fields}); err != nil {
			return err
		}
		log.Printf("wrote %s (%d steps)", path, *steps)
	}
	return nil
}

func axis(start, step float64, n int) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = start + float64(i)*step
	}
	return a
}

// areaGrid approximates each cell's surface area as proportional to the
// cosine of its latitude, scaled to a nominal 100km cell at the equator.
func areaGrid(lat, lon []float64) [][]float64 {
	area := make([][]float64, len(lat))
	for y, la := range lat {
		row := make([]float64, len(lon))
		w := 1e10 * math.Cos(la*math.Pi/180)
		if w < 1e6 {
			w = 1e6
		}
		for x := range row {
			row[x] = w
		}
		area[y] = row
	}
	return area
}

// genField produces base + spread*cos(lat) plus uniform noise, constant in
// longitude up to the noise.
func genField(def fieldDef, lat, lon []float64, steps int, rng *rand.Rand) [][][]float64 {
	cube := make([][][]float64, steps)
	for t := range cube {
		plane := make([][]float64, len(lat))
		for y, la := range lat {
			row := make([]float64, len(lon))
			v := def.base + def.spread*math.Cos(la*math.Pi/180)
			for x := range row {
				row[x] = v + def.noise*(2*rng.Float64()-1)
			}
			plane[y] = row
		}
		cube[t] = plane
	}
	return cube
}

// soilTypeField carves the grid into ocean, ice near the poles, and a few
// land soil classes elsewhere.
func soilTypeField(lat, lon []float64, steps int) [][][]float64 {
	plane := make([][]float64, len(lat))
	for y, la := range lat {
		row := make([]float64, len(lon))
		for x := range row {
			switch {
			case math.Abs(la) > 75:
				row[x] = 16 // ice
			case (x/4+y/4)%2 == 0:
				row[x] = 0 // ocean
			default:
				row[x] = float64(1 + (x+y)%9)
			}
		}
		plane[y] = row
	}

	cube := make([][][]float64, steps)
	for t := range cube {
		cube[t] = plane
	}
	return cube
}
