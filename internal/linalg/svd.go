package linalg

import (
	"fmt"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

// Re-orthonormalised right vectors shorter than this are the second member of
// a duplicated singular pair and are skipped.
const pairTolerance = 0.1

// SVDResult holds the leading complex singular triplets of a matrix.
type SVDResult struct {
	U      *mat.CDense // m×k, orthonormal columns
	S      []float64   // k leading singular values, descending
	V      *mat.CDense // n×k, orthonormal columns
	Values []float64   // all min(m, n) singular values, descending
}

// SVD computes the k leading singular triplets of x.
//
// Each singular value of x appears twice in the spectrum of Realify(x), and
// any unit vector in a duplicated right singular subspace maps to a complex
// right singular vector of x. Candidates are taken in descending order and
// kept when they stay independent (over ℂ) of those already chosen. Left
// vectors follow as U = X·V·Σ⁻¹; a column with zero singular value is left
// zero.
func SVD(x mat.CMatrix, k int) (*SVDResult, error) {
	m, n := x.Dims()
	p := min(m, n)
	if k < 1 || k > p {
		return nil, field.Invalid("svd rank %d outside [1, %d]", k, p)
	}

	var svd mat.SVD
	if ok := svd.Factorize(Realify(x), mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: svd did not converge", field.ErrDegenerate)
	}
	rv := svd.Values(nil)
	var rV mat.Dense
	svd.VTo(&rV)

	values := make([]float64, p)
	for j := range values {
		values[j] = rv[2*j]
	}

	basis := make([][]complex128, 0, k)
	s := make([]float64, 0, k)
	for j := 0; j < len(rv) && len(basis) < k; j++ {
		v := make([]complex128, n)
		for i := 0; i < n; i++ {
			v[i] = complex(rV.At(i, j), rV.At(i+n, j))
		}
		res := orthogonalize(v, basis)
		if res < pairTolerance {
			continue
		}
		scaleVec(v, 1/res)
		basis = append(basis, v)
		s = append(s, rv[j])
	}
	if len(basis) < k {
		return nil, field.Degenerate("svd", len(basis), 0)
	}

	V := mat.NewCDense(n, k, nil)
	for j, v := range basis {
		for i, val := range v {
			V.Set(i, j, val)
		}
	}

	U := Mul(x, V)
	inv := make([]complex128, k)
	for j, sigma := range s {
		if sigma > 0 {
			inv[j] = complex(1/sigma, 0)
		}
	}
	ScaleColumns(U, inv)

	return &SVDResult{U: U, S: s, V: V, Values: values}, nil
}

// SingularValues returns the singular values of x in descending order.
func SingularValues(x mat.CMatrix) ([]float64, error) {
	m, n := x.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(Realify(x), mat.SVDNone); !ok {
		return nil, fmt.Errorf("%w: svd did not converge", field.ErrDegenerate)
	}
	rv := svd.Values(nil)
	values := make([]float64, min(m, n))
	for j := range values {
		values[j] = rv[2*j]
	}
	return values, nil
}

// RankForEnergy returns the smallest k whose leading singular values carry at
// least the given fraction of Σσ². Zero spectra give 0.
func RankForEnergy(values []float64, fraction float64) int {
	total := 0.0
	for _, s := range values {
		total += s * s
	}
	if total == 0 {
		return 0
	}
	acc := 0.0
	for j, s := range values {
		acc += s * s
		if acc >= fraction*total*(1-1e-12) {
			return j + 1
		}
	}
	return len(values)
}

// CumulativeEnergy returns the running fraction of Σσ² carried by the first
// j+1 singular values.
func CumulativeEnergy(values []float64) []float64 {
	total := 0.0
	for _, s := range values {
		total += s * s
	}
	out := make([]float64, len(values))
	if total == 0 {
		return out
	}
	acc := 0.0
	for j, s := range values {
		acc += s * s
		out[j] = acc / total
	}
	return out
}
