package dmd

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sort"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the relative singular value floor below which a kept
// mode is treated as numerically zero.
const DefaultTolerance = 1e-10

// Options controls a fit.
type Options struct {
	// Rank is the truncation rank k. Zero defers to Energy.
	Rank int
	// Energy, when Rank is zero, selects the smallest rank whose singular
	// values carry this fraction of Σσ² of the first snapshot block.
	Energy float64
	// Dt is the snapshot spacing.
	Dt float64
	// Tolerance is the relative singular value and eigenvalue floor. Zero
	// selects DefaultTolerance.
	Tolerance float64
}

// Model is a fitted decomposition.
type Model struct {
	Modes      *mat.CDense // Φ, M×k
	Lambda     []complex128
	Omega      []complex128
	Amplitudes []complex128
	Singular   []float64 // all singular values of the first snapshot block
	Rank       int
	Dt         float64
}

// Mode summarises one DMD mode.
type Mode struct {
	Index     int
	Lambda    complex128
	Omega     complex128
	Growth    float64 // Re ω
	Frequency float64 // Im ω, rad per unit time
	Amplitude float64 // |b|
	Magnitude float64 // |λ|
}

func (o Options) validate(m, l int) (Options, error) {
	if l < 2 {
		return o, field.Invalid("dmd needs at least 2 snapshots, got %d", l)
	}
	if !(o.Dt > 0) {
		return o, field.Invalid("dmd dt must be positive, got %g", o.Dt)
	}
	if o.Rank < 0 {
		return o, field.Invalid("dmd rank must be non-negative, got %d", o.Rank)
	}
	if o.Rank == 0 && !(o.Energy > 0 && o.Energy <= 1) {
		return o, field.Invalid("dmd needs a rank or an energy fraction in (0, 1], got %g", o.Energy)
	}
	if o.Tolerance < 0 {
		return o, field.Invalid("dmd tolerance must be non-negative, got %g", o.Tolerance)
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if maxRank := min(m, l-1); o.Rank > maxRank {
		return o, field.Invalid("dmd rank %d exceeds min(M, L−1) = %d", o.Rank, maxRank)
	}
	return o, nil
}

// Fit decomposes the M×L snapshot matrix x.
func Fit(x mat.CMatrix, opts Options) (*Model, error) {
	m, l := x.Dims()
	opts, err := opts.validate(m, l)
	if err != nil {
		return nil, err
	}

	x1 := linalg.Columns(x, 0, l-1)
	x2 := linalg.Columns(x, 1, l)

	rank := opts.Rank
	if rank == 0 {
		values, err := linalg.SingularValues(x1)
		if err != nil {
			return nil, fmt.Errorf("dmd: %w", err)
		}
		rank = linalg.RankForEnergy(values, opts.Energy)
		if rank == 0 {
			return nil, field.Degenerate("svd", 0, 0)
		}
	}

	svd, err := linalg.SVD(x1, rank)
	if err != nil {
		return nil, fmt.Errorf("dmd: %w", err)
	}
	floor := opts.Tolerance * svd.Values[0]
	for j, s := range svd.S {
		if s <= floor {
			return nil, field.Degenerate("svd", j, s)
		}
	}

	// B = X2·V·Σ⁻¹ is shared by the reduced operator and the modes.
	b := linalg.Mul(x2, svd.V)
	inv := make([]complex128, rank)
	for j, s := range svd.S {
		inv[j] = complex(1/s, 0)
	}
	linalg.ScaleColumns(b, inv)

	reduced := linalg.MulH(svd.U, b)
	lambda, w, err := linalg.Eigen(reduced)
	if err != nil {
		return nil, fmt.Errorf("dmd: %w", err)
	}

	radius := 0.0
	for _, v := range lambda {
		radius = max(radius, cmplx.Abs(v))
	}
	omega := make([]complex128, rank)
	for j, v := range lambda {
		if a := cmplx.Abs(v); a == 0 || a <= opts.Tolerance*radius {
			return nil, field.Degenerate("log", j, a)
		}
		omega[j] = cmplx.Log(v) / complex(opts.Dt, 0)
	}

	modes := linalg.Mul(b, w)
	amps, _, err := linalg.LstSq(modes, field.Column(x, 0), 0)
	if err != nil {
		var de *field.DegeneracyError
		if errors.As(err, &de) {
			return nil, field.Degenerate("amplitudes", de.Index, de.Value)
		}
		return nil, fmt.Errorf("dmd: %w", err)
	}

	model := &Model{
		Modes:      modes,
		Lambda:     lambda,
		Omega:      omega,
		Amplitudes: amps,
		Singular:   svd.Values,
		Rank:       rank,
		Dt:         opts.Dt,
	}
	if !model.finite() {
		return nil, fmt.Errorf("%w: non-finite dmd result", field.ErrDegenerate)
	}
	return model, nil
}

func (m *Model) finite() bool {
	if !linalg.IsFinite(m.Modes) {
		return false
	}
	for _, vs := range [][]complex128{m.Lambda, m.Omega, m.Amplitudes} {
		if !field.Field(vs).IsValid() {
			return false
		}
	}
	return true
}

// Reconstruct evaluates Φ·(b ⊙ exp(ω·τ)). τ is measured from the first
// snapshot of the fitted window and may run past its end.
func (m *Model) Reconstruct(tau float64) field.Field {
	coef := make([]complex128, m.Rank)
	t := complex(tau, 0)
	for j := range coef {
		coef[j] = m.Amplitudes[j] * cmplx.Exp(m.Omega[j]*t)
	}
	return linalg.MulVec(m.Modes, coef)
}

// Func returns Reconstruct as a function value.
func (m *Model) Func() func(tau float64) field.Field {
	return m.Reconstruct
}

// Series reconstructs n columns at τ = jΔt, j = 0..n−1. It returns nil for
// n < 1.
func (m *Model) Series(n int) *mat.CDense {
	if n < 1 {
		return nil
	}
	rows, _ := m.Modes.Dims()
	out := mat.NewCDense(rows, n, nil)
	for j := 0; j < n; j++ {
		field.SetColumn(out, j, m.Reconstruct(float64(j)*m.Dt))
	}
	return out
}

// Spectrum lists the modes ordered by decreasing amplitude.
func (m *Model) Spectrum() []Mode {
	modes := make([]Mode, m.Rank)
	for j := range modes {
		modes[j] = Mode{
			Index:     j,
			Lambda:    m.Lambda[j],
			Omega:     m.Omega[j],
			Growth:    real(m.Omega[j]),
			Frequency: imag(m.Omega[j]),
			Amplitude: cmplx.Abs(m.Amplitudes[j]),
			Magnitude: cmplx.Abs(m.Lambda[j]),
		}
	}
	sort.SliceStable(modes, func(i, j int) bool { return modes[i].Amplitude > modes[j].Amplitude })
	return modes
}
