package apperr

import "errors"

// Sentinel errors shared across the pipeline. Callers match with errors.Is;
// wrapping sites add context with fmt.Errorf("pkg: op: %w", ...).
var (
	// ErrInvalidLayout reports a montage grid too small for its tiles.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrMissingInput reports a requested source image that does not exist.
	ErrMissingInput = errors.New("missing input")

	// ErrUnitExecution reports a unit script that failed to evaluate.
	ErrUnitExecution = errors.New("unit execution failed")

	// ErrRelocation reports a single artifact move that could not complete.
	ErrRelocation = errors.New("relocation failed")

	// ErrInvalidPath reports a path that is absolute or escapes its root.
	ErrInvalidPath = errors.New("invalid path")

	ErrNotFound = errors.New("not found")
)
