package linalg

import (
	"fmt"
	"math"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

// LstSq returns the minimum-norm x minimising ‖a·x − b‖₂ and the effective
// rank of a. Singular values at or below rcond·σ₁ are treated as zero; a
// non-positive rcond selects max(m, n)·ε.
func LstSq(a mat.CMatrix, b []complex128, rcond float64) ([]complex128, int, error) {
	m, n := a.Dims()
	if len(b) != m {
		return nil, 0, fmt.Errorf("%w: lstsq rhs length %d, matrix has %d rows", field.ErrDimensionMismatch, len(b), m)
	}
	if rcond <= 0 {
		rcond = float64(max(m, n)) * 0x1p-52
	}

	var svd mat.SVD
	if ok := svd.Factorize(Realify(a), mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("%w: svd did not converge", field.ErrDegenerate)
	}
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 || math.IsNaN(s[0]) {
		return nil, 0, field.Degenerate("lstsq", 0, 0)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rhs := make([]float64, 2*m)
	for i, x := range b {
		rhs[i] = real(x)
		rhs[i+m] = imag(x)
	}
	rhsVec := mat.NewVecDense(2*m, rhs)

	cutoff := rcond * s[0]
	sol := mat.NewVecDense(2*n, nil)
	rank := 0
	for j, sigma := range s {
		if sigma <= cutoff {
			break
		}
		coef := mat.Dot(u.ColView(j), rhsVec) / sigma
		sol.AddScaledVec(sol, coef, v.ColView(j))
		rank++
	}

	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(sol.AtVec(i), sol.AtVec(i+n))
	}
	return x, (rank + 1) / 2, nil
}
