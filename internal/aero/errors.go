package aero

import "fmt"

// GeometryError indicates the geometry tool failed to apply a design.
type GeometryError struct {
	Reason string
	Err    error
}

func (e *GeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geometry update failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("geometry update failed: %s", e.Reason)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// SimulationError indicates the simulator exited nonzero or produced a
// missing or empty output artifact.
type SimulationError struct {
	Reason string
	Err    error
}

func (e *SimulationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("simulation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("simulation failed: %s", e.Reason)
}

func (e *SimulationError) Unwrap() error { return e.Err }

// RowErrorKind distinguishes a missing row from a malformed one.
type RowErrorKind string

const (
	RowNotFound  RowErrorKind = "not_found"
	RowMalformed RowErrorKind = "malformed"
)

// RowError indicates a labeled row could not be extracted from the
// cheap-pass table.
type RowError struct {
	Label  string
	Kind   RowErrorKind
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %q %s: %s", e.Label, e.Kind, e.Reason)
}

// StabilityExtractionError indicates the stability report existed but
// yielded no usable aerodynamic-center data. Kept distinct from RowError
// because silently defaulting the margin to neutral would mislead the
// search.
type StabilityExtractionError struct {
	Reason string
}

func (e *StabilityExtractionError) Error() string {
	return "stability extraction failed: " + e.Reason
}
