package packing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInputs is returned when diameter, clearance, width or height are out of range.
	ErrInvalidInputs = errors.New("packing inputs are invalid")
	// ErrUnknownPattern is returned when a request names a pattern other than rectangular or triangular.
	ErrUnknownPattern = errors.New("unknown packing pattern")
	// ErrUnknownMode is returned when a request names a mode other than tight or spread.
	ErrUnknownMode = errors.New("unknown packing mode")
	// ErrUnknownPreset is returned by ParsePreset for unrecognised preset names.
	ErrUnknownPreset = errors.New("unknown packing preset")
	// ErrOptimizeRectangular is returned when the angle optimizer is requested for a rectangular grid.
	ErrOptimizeRectangular = errors.New("angle optimization only applies to triangular packing")
	// ErrOptimizeTight is returned when the angle optimizer is combined with tight mode.
	ErrOptimizeTight = errors.New("angle optimization only produces spread layouts")
)

// ConfigurationError describes a single out-of-range input field.
// It matches ErrInvalidInputs under errors.Is.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidInputs
}
