// Package dmd implements exact dynamic mode decomposition of a snapshot
// series.
//
// Given snapshots x_0..x_{L−1} sampled every Δt, [Fit] finds a rank-k linear
// operator advancing x_j to x_{j+1}, its eigenvalues λ, continuous-time rates
// ω = ln(λ)/Δt on the principal branch, modes Φ and amplitudes b fitted to the
// first snapshot. The fitted [Model] reconstructs or forecasts the field at
// any time τ as Φ·(b ⊙ exp(ω·τ)).
package dmd
