package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures that carry no parameters. Callers match them
// with errors.Is.
var (
	// ErrEmptyInput is returned when a request names no input files.
	ErrEmptyInput = errors.New("no input files given")

	// ErrNoValidData is returned when every cell selected for a statistic
	// is missing or masked.
	ErrNoValidData = errors.New("all selected cells are missing")

	// ErrNoTimeSteps is returned when the input files merge to an empty
	// timeline.
	ErrNoTimeSteps = errors.New("input files contain no time steps")
)

// ConfigurationError reports a bad or missing gridcell-area reference file.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gridcell area weights %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("gridcell area weights %s: %s", e.Path, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnknownVariableError reports a variable name outside the closed
// stored+derived catalog.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q: not in the supported variable set", e.Name)
}

// InvalidStatisticError reports a statistic name outside
// {mean, variance, minimum, maximum}.
type InvalidStatisticError struct {
	Name string
}

func (e *InvalidStatisticError) Error() string {
	return fmt.Sprintf("invalid statistic %q: supported statistics are mean, variance, minimum and maximum", e.Name)
}

// MissingVariableError reports a required stored field absent from an input
// file. Field may be a base field of a derived variable the caller never
// named directly.
type MissingVariableError struct {
	Field string
	File  string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("required field %q not present in %s", e.Field, e.File)
}

// GridShapeMismatchError reports input files (or the weights reference file)
// disagreeing on the spatial grid shape.
type GridShapeMismatchError struct {
	File             string
	WantLat, WantLon int
	GotLat, GotLon   int
}

func (e *GridShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: spatial grid is %dx%d, expected %dx%d",
		e.File, e.GotLat, e.GotLon, e.WantLat, e.WantLon)
}

// InvalidRegionError reports malformed region bounds.
type InvalidRegionError struct {
	Name   string
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("region %q: %s", e.Name, e.Reason)
}
