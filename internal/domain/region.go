package domain

// Default region bounds: the whole globe on the model's 0..360 circular
// longitude axis.
const (
	DefaultMinLat  = -90.0
	DefaultMaxLat  = 90.0
	DefaultEastLon = 0.0
	DefaultWestLon = 360.0
)

// GlobalRegionName marks records computed without an explicit region.
const GlobalRegionName = "global"

// RegionSpec is the wire form of a region in a harvest request. Either range
// may be omitted, in which case the default applies.
type RegionSpec struct {
	LatitudeRange  *[2]float64 `json:"latitude_range,omitempty"`
	LongitudeRange *[2]float64 `json:"longitude_range,omitempty"`
}

// Region is a resolved, validated latitude/longitude rectangle. Bounds are
// inclusive. The longitude interval runs eastward from EastLon to WestLon
// and wraps through 360/0 when EastLon > WestLon.
type Region struct {
	Name    string  `json:"name"`
	MinLat  float64 `json:"min_lat"`
	MaxLat  float64 `json:"max_lat"`
	EastLon float64 `json:"east_lon"`
	WestLon float64 `json:"west_lon"`
}

// GlobalRegion returns the default all-inclusive region.
func GlobalRegion() Region {
	return Region{
		Name:    GlobalRegionName,
		MinLat:  DefaultMinLat,
		MaxLat:  DefaultMaxLat,
		EastLon: DefaultEastLon,
		WestLon: DefaultWestLon,
	}
}

// NewRegion resolves a RegionSpec against the defaults and validates the
// bounds.
func NewRegion(name string, spec RegionSpec) (Region, error) {
	if name == "" {
		return Region{}, &InvalidRegionError{Name: name, Reason: "region name must not be empty"}
	}

	r := Region{
		Name:    name,
		MinLat:  DefaultMinLat,
		MaxLat:  DefaultMaxLat,
		EastLon: DefaultEastLon,
		WestLon: DefaultWestLon,
	}
	if spec.LatitudeRange != nil {
		r.MinLat, r.MaxLat = spec.LatitudeRange[0], spec.LatitudeRange[1]
	}
	if spec.LongitudeRange != nil {
		r.EastLon, r.WestLon = spec.LongitudeRange[0], spec.LongitudeRange[1]
	}

	if r.MinLat < -90 || r.MinLat > 90 || r.MaxLat < -90 || r.MaxLat > 90 {
		return Region{}, &InvalidRegionError{Name: name, Reason: "latitude bounds must be within [-90, 90]"}
	}
	if r.MinLat > r.MaxLat {
		return Region{}, &InvalidRegionError{Name: name, Reason: "minimum latitude must not exceed maximum latitude"}
	}
	if r.EastLon < 0 || r.EastLon > 360 || r.WestLon < 0 || r.WestLon > 360 {
		return Region{}, &InvalidRegionError{Name: name, Reason: "longitude bounds must be within [0, 360]"}
	}
	return r, nil
}

// Wraps reports whether the longitude interval crosses the 360/0 seam.
func (r Region) Wraps() bool { return r.EastLon > r.WestLon }

// Contains reports whether a grid point falls inside the region, bounds
// inclusive.
func (r Region) Contains(lat, lon float64) bool {
	if lat < r.MinLat || lat > r.MaxLat {
		return false
	}
	if r.Wraps() {
		return lon >= r.EastLon || lon <= r.WestLon
	}
	return lon >= r.EastLon && lon <= r.WestLon
}
