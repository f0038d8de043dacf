package linalg

import (
	"fmt"
	"math"
	"sort"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

const (
	// Candidates whose genuine part is below this fraction of the embedded
	// vector belong to the conjugate spectrum only.
	genuineTolerance = 1e-6
	// Minimum residual for a candidate to count as a new direction.
	independenceTolerance = 1e-8
)

type eigCandidate struct {
	index int
	score float64
	vec   []complex128
}

// Eigen returns the eigenvalues and unit-norm right eigenvectors of the
// square complex matrix a. Column j of the vectors pairs with value j.
//
// The spectrum of Realify(a) is spec(a) ∪ conj(spec(a)). For an eigenvector
// z = [z1; z2] of the embedding with value μ, g = (z1 + i·z2)/2 satisfies
// a·g = μ·g, so g is either zero (μ only in the conjugate spectrum) or an
// eigenvector of a. The n candidates with the largest genuine part that are
// mutually independent are kept. Defective matrices, which lack n independent
// eigenvectors, return ErrDegenerate.
func Eigen(a mat.CMatrix) ([]complex128, *mat.CDense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, nil, fmt.Errorf("%w: eigen of %d×%d matrix", field.ErrDimensionMismatch, n, c)
	}
	if n == 0 {
		return nil, nil, field.Invalid("eigen of empty matrix")
	}

	var eig mat.Eigen
	if ok := eig.Factorize(Realify(a), mat.EigenRight); !ok {
		return nil, nil, fmt.Errorf("%w: eigendecomposition did not converge", field.ErrDegenerate)
	}
	mu := eig.Values(nil)
	var z mat.CDense
	eig.VectorsTo(&z)

	cands := make([]eigCandidate, 0, 2*n)
	for j := 0; j < 2*n; j++ {
		g := make([]complex128, n)
		zn := 0.0
		for i := 0; i < n; i++ {
			z1, z2 := z.At(i, j), z.At(i+n, j)
			g[i] = (z1 + 1i*z2) / 2
			zn += real(z1)*real(z1) + imag(z1)*imag(z1) + real(z2)*real(z2) + imag(z2)*imag(z2)
		}
		if zn == 0 {
			continue
		}
		cands = append(cands, eigCandidate{index: j, score: vecNorm(g) / math.Sqrt(zn), vec: g})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	chosen := make([]eigCandidate, 0, n)
	basis := make([][]complex128, 0, n)
	for _, cand := range cands {
		if len(chosen) == n || cand.score < genuineTolerance {
			break
		}
		scaleVec(cand.vec, 1/vecNorm(cand.vec))
		q := append([]complex128(nil), cand.vec...)
		res := orthogonalize(q, basis)
		if res < independenceTolerance {
			continue
		}
		scaleVec(q, 1/res)
		basis = append(basis, q)
		chosen = append(chosen, cand)
	}
	if len(chosen) < n {
		return nil, nil, field.Degenerate("eigen", len(chosen), 0)
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].index < chosen[j].index })

	values := make([]complex128, n)
	vectors := mat.NewCDense(n, n, nil)
	for j, cand := range chosen {
		values[j] = mu[cand.index]
		for i, v := range cand.vec {
			vectors.Set(i, j, v)
		}
	}
	return values, vectors, nil
}
