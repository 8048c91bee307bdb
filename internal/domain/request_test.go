package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		HarvesterName: "daily_bfg",
		Filenames:     []string{"bfg_control_fhr06.nc"},
		Statistics:    []string{"mean", "variance"},
		Variables:     []string{"tmp2m"},
	}
}

func TestRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := validRequest()
		require.NoError(t, req.Validate())
	})

	t.Run("empty filenames", func(t *testing.T) {
		req := validRequest()
		req.Filenames = nil
		err := req.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("unknown variable", func(t *testing.T) {
		req := validRequest()
		req.Variables = []string{"not_a_real_var"}
		err := req.Validate()
		require.Error(t, err)

		var unknownErr *UnknownVariableError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "not_a_real_var", unknownErr.Name)
	})

	t.Run("invalid statistic", func(t *testing.T) {
		req := validRequest()
		req.Statistics = []string{"median"}
		err := req.Validate()
		require.Error(t, err)

		var statErr *InvalidStatisticError
		require.ErrorAs(t, err, &statErr)
		assert.Equal(t, "median", statErr.Name)
	})

	t.Run("bad region latitude", func(t *testing.T) {
		req := validRequest()
		req.Regions = map[string]RegionSpec{
			"bad": {LatitudeRange: &[2]float64{100, 200}},
		}
		err := req.Validate()
		require.Error(t, err)

		var regionErr *InvalidRegionError
		require.ErrorAs(t, err, &regionErr)
		assert.Equal(t, "bad", regionErr.Name)
	})

	t.Run("bad surface mask", func(t *testing.T) {
		req := validRequest()
		req.SurfaceMask = "ocean"
		require.Error(t, req.Validate())
	})

	t.Run("land surface mask", func(t *testing.T) {
		req := validRequest()
		req.SurfaceMask = SurfaceMaskLand
		require.NoError(t, req.Validate())
	})
}

func TestParseStatistic(t *testing.T) {
	for _, name := range []string{"mean", "variance", "minimum", "maximum"} {
		s, err := ParseStatistic(name)
		require.NoError(t, err)
		assert.Equal(t, Statistic(name), s)
	}

	_, err := ParseStatistic("stddev")
	var statErr *InvalidStatisticError
	require.ErrorAs(t, err, &statErr)
}

func TestResolvedRegions(t *testing.T) {
	t.Run("defaults to global", func(t *testing.T) {
		req := validRequest()
		regions, err := req.ResolvedRegions()
		require.NoError(t, err)
		require.Len(t, regions, 1)
		assert.Equal(t, GlobalRegion(), regions[0])
	})

	t.Run("sorted by name", func(t *testing.T) {
		req := validRequest()
		req.Regions = map[string]RegionSpec{
			"tropics": {LatitudeRange: &[2]float64{-20, 20}},
			"arctic":  {LatitudeRange: &[2]float64{66, 90}},
		}
		regions, err := req.ResolvedRegions()
		require.NoError(t, err)
		require.Len(t, regions, 2)
		assert.Equal(t, "arctic", regions[0].Name)
		assert.Equal(t, "tropics", regions[1].Name)
	})

	t.Run("omitted ranges default", func(t *testing.T) {
		req := validRequest()
		req.Regions = map[string]RegionSpec{
			"west_pacific": {LongitudeRange: &[2]float64{120, 180}},
		}
		regions, err := req.ResolvedRegions()
		require.NoError(t, err)
		require.Len(t, regions, 1)
		assert.Equal(t, DefaultMinLat, regions[0].MinLat)
		assert.Equal(t, DefaultMaxLat, regions[0].MaxLat)
		assert.Equal(t, 120.0, regions[0].EastLon)
		assert.Equal(t, 180.0, regions[0].WestLon)
	})
}

func TestBaseFields(t *testing.T) {
	t.Run("stored variable maps to itself", func(t *testing.T) {
		req := validRequest()
		fields, err := req.BaseFields()
		require.NoError(t, err)
		assert.Equal(t, []string{"tmp2m"}, fields)
	})

	t.Run("derived variable expands and dedupes", func(t *testing.T) {
		req := validRequest()
		req.Variables = []string{"netrf_avetoa", "ulwrf_avetoa"}
		fields, err := req.BaseFields()
		require.NoError(t, err)
		assert.Equal(t, []string{"dswrf_avetoa", "uswrf_avetoa", "ulwrf_avetoa"}, fields)
	})

	t.Run("land mask adds soil type", func(t *testing.T) {
		req := validRequest()
		req.SurfaceMask = SurfaceMaskLand
		fields, err := req.BaseFields()
		require.NoError(t, err)
		assert.Contains(t, fields, SoilTypeField)
	})

	t.Run("unknown variable propagates", func(t *testing.T) {
		req := validRequest()
		req.Variables = []string{"bogus"}
		_, err := req.BaseFields()
		require.Error(t, err)
		var unknownErr *UnknownVariableError
		assert.True(t, errors.As(err, &unknownErr))
	})
}
