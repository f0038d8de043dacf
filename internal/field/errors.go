package field

import (
	"errors"
	"fmt"
)

// Domain errors for solver and decomposition operations.
var (
	// ErrInvalidConfig indicates a non-positive size, step or rank, or a rank
	// outside the admissible range for the data.
	ErrInvalidConfig = errors.New("field: invalid configuration")

	// ErrDegenerate indicates a numerically degenerate linear-algebra step
	// (near-zero singular value, zero eigenvalue, empty least-squares system).
	ErrDegenerate = errors.New("field: numerical degeneracy")

	// ErrUnstable indicates the integrated field became non-finite.
	ErrUnstable = errors.New("field: integration unstable (non-finite field)")

	// ErrDimensionMismatch indicates mismatched snapshot or matrix dimensions.
	ErrDimensionMismatch = errors.New("field: dimension mismatch")
)

// StepError wraps an error with the integration step that triggered it.
type StepError struct {
	Step    int
	Time    float64
	Column  int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, column %d): %v", e.Step, e.Time, e.Column, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// DegeneracyError reports which stage of a decomposition hit a degenerate
// value and at which index.
type DegeneracyError struct {
	Stage   string
	Index   int
	Value   float64
	Wrapped error
}

func (e *DegeneracyError) Error() string {
	return fmt.Sprintf("%s: index %d (value %.3e): %v", e.Stage, e.Index, e.Value, e.Wrapped)
}

func (e *DegeneracyError) Unwrap() error {
	return e.Wrapped
}

// Degenerate builds a DegeneracyError wrapping ErrDegenerate.
func Degenerate(stage string, index int, value float64) error {
	return &DegeneracyError{Stage: stage, Index: index, Value: value, Wrapped: ErrDegenerate}
}

// Invalid wraps ErrInvalidConfig with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
