// Package linalg provides the complex dense linear algebra needed by the
// decompositions: products, truncated SVD, eigendecomposition and
// minimum-norm least squares.
//
// gonum's factorizations work on real matrices, so every routine goes
// through the real embedding
//
//	R(A) = [ Re A  −Im A ]
//	       [ Im A   Re A ]
//
// which maps complex products to real products and preserves singular values
// (each appears twice) and eigenvalues (together with their conjugates).
// Complex factors are read back from the real ones; see [SVD] and [Eigen]
// for how the duplicated spectra are resolved.
package linalg
