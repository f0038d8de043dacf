// Package pca provides the truncated-SVD baseline that DMD results are
// compared against.
package pca

import (
	"fmt"
	"math/cmplx"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance matches the DMD singular value floor.
const DefaultTolerance = 1e-10

// Model is a rank-k principal component fit of a snapshot matrix.
type Model struct {
	Components *mat.CDense // U_k, M×k
	Singular   []float64   // σ_1..σ_k
	Scores     *mat.CDense // Σ_k·V_kᴴ, k×L
	Values     []float64   // all singular values
	Rank       int
}

// Fit keeps the k leading components of x. Kept singular values at or below
// DefaultTolerance·σ₁ give a degeneracy error.
func Fit(x mat.CMatrix, rank int) (*Model, error) {
	m, l := x.Dims()
	if m == 0 || l == 0 {
		return nil, field.Invalid("pca of empty matrix")
	}
	if rank < 1 || rank > min(m, l) {
		return nil, field.Invalid("pca rank %d outside [1, %d]", rank, min(m, l))
	}

	svd, err := linalg.SVD(x, rank)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	for j, s := range svd.S {
		if s <= DefaultTolerance*svd.Values[0] {
			return nil, field.Degenerate("svd", j, s)
		}
	}

	scores := mat.NewCDense(rank, l, nil)
	for i := 0; i < rank; i++ {
		s := complex(svd.S[i], 0)
		for j := 0; j < l; j++ {
			scores.Set(i, j, s*cmplx.Conj(svd.V.At(j, i)))
		}
	}

	return &Model{
		Components: svd.U,
		Singular:   svd.S,
		Scores:     scores,
		Values:     svd.Values,
		Rank:       rank,
	}, nil
}

// Reconstruct returns U_k·Σ_k·V_kᴴ.
func (m *Model) Reconstruct() *mat.CDense {
	return linalg.Mul(m.Components, m.Scores)
}

// ExplainedEnergy returns the cumulative fraction of Σσ² carried by the
// leading components, over all singular values.
func (m *Model) ExplainedEnergy() []float64 {
	return linalg.CumulativeEnergy(m.Values)
}

// Captured is the energy fraction held by the kept components.
func (m *Model) Captured() float64 {
	e := m.ExplainedEnergy()
	return e[m.Rank-1]
}
