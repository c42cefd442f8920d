package analysis

import "errors"

var (
	// ErrInvalidDomain indicates an empty, reversed or non-finite interval.
	ErrInvalidDomain = errors.New("analysis: invalid domain")

	// ErrNotOneDimensional indicates phase-line analysis of a planar system.
	ErrNotOneDimensional = errors.New("analysis: phase line needs a one-dimensional system")

	// ErrNotPlanar indicates a portrait or vector field of a 1D system.
	ErrNotPlanar = errors.New("analysis: planar system required")
)
