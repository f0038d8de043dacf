// Package field provides the core data primitives shared by the solver and
// the decomposition packages.
//
// The package defines:
//
//   - [Field]: one complex snapshot of the periodic scalar field
//   - [Grid] and [Wavenumbers]: the uniform spatial grid on [0, 2π) and its
//     FFT wavenumbers
//   - column helpers for time-series matrices stored as gonum [mat.CDense]
//     (column j is the snapshot at time j·Δt)
//   - the sentinel errors and error types every other package reports with
//
// # Errors
//
// Configuration problems wrap [ErrInvalidConfig], numerical degeneracy wraps
// [ErrDegenerate] (usually through a [DegeneracyError]) and integrator
// blow-up wraps [ErrUnstable] (through a [StepError]). Use errors.Is to
// classify them.
package field
