// Package domain models harvest requests and harvested statistics for
// background-forecast gridded (bfg) model output.
//
// # Data Source
//
// Input files are NetCDF output from a global forecast model. Each file
// carries a longitude axis (grid_xt, 0..360 degrees east, circular), a
// latitude axis (grid_yt, ~90..-90 degrees), a time axis with a
// "<unit> since <epoch>" encoding, and one 2-D field per time step for each
// stored variable. Fields optionally carry "units" and "long_name"
// attributes and may contain fill/missing values.
//
// A fixed reference file supplies the per-cell surface area of the model
// grid ("gridcell area weights"). Its path is deployment configuration, not
// part of the request.
//
// # Variables
//
// The harvestable variable set is closed. Stored variables are read directly
// from the files. Derived variables are signed unit-weight linear
// combinations of stored fields, computed cell-wise:
//
//	netrf_avetoa = dswrf_avetoa - uswrf_avetoa - ulwrf_avetoa
//	netef_ave    = dswrf_ave + dlwrf_ave - ulwrf_ave - uswrf_ave - shtfl_ave - lhtfl_ave
//
// A derived variable reports the units of its first base field. The base
// fields are assumed unit-compatible; this is not validated.
//
// # Regions
//
// A region is a named latitude/longitude rectangle with inclusive bounds.
// Longitude is circular: the interval runs eastward from east_lon to
// west_lon, wrapping through 360/0 when east_lon > west_lon. For example
// east_lon=200, west_lon=100 selects [200,360] plus [0,100]. Omitted ranges
// default to the full globe.
//
// # Surface mask
//
// An optional "land" surface mask restricts statistics to land cells using
// the sotyp (soil type) field, where 0 marks ocean and 16 marks ice.
//
// # Failure model
//
// A harvest request is all-or-nothing: any invalid member of the request or
// any data-integrity problem aborts the whole request with one of the typed
// errors in errors.go. Nothing is retried internally.
package domain
