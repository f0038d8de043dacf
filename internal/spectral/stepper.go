package spectral

import (
	"math"
	"math/cmplx"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/integrators"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Params are the grid, time step and physical coefficients of one run.
type Params struct {
	M   int
	Dt  float64
	C0  float64
	Rho float64
	Q   float64
}

func (p Params) Validate() error {
	if p.M <= 0 {
		return field.Invalid("grid size must be positive, got %d", p.M)
	}
	if p.Dt <= 0 || math.IsNaN(p.Dt) || math.IsInf(p.Dt, 0) {
		return field.Invalid("dt must be positive and finite, got %g", p.Dt)
	}
	for name, v := range map[string]float64{"c0": p.C0, "rho": p.Rho, "q": p.Q} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return field.Invalid("%s must be finite, got %g", name, v)
		}
	}
	return nil
}

// Propagator returns exp[(ρ − q²k²(i + c0))·Δt/2] for every wavenumber k.
func Propagator(k []float64, p Params) []complex128 {
	q2 := p.Q * p.Q
	half := complex(p.Dt/2, 0)
	prop := make([]complex128, len(k))
	for j, kj := range k {
		a := q2 * kj * kj
		prop[j] = cmplx.Exp(complex(p.Rho-a*p.C0, -a) * half)
	}
	return prop
}

// Stepper advances a field by one Strang split step of fixed size Dt.
type Stepper struct {
	params    Params
	prop      []complex128
	fft       *fourier.CmplxFFT
	coeff     []complex128
	nonlinear integrators.Pointwise
	rhs       integrators.RHS
}

// New validates p and precomputes the propagator and FFT plan. A nil
// nonlinear integrator selects the midpoint rule.
func New(p Params, nonlinear integrators.Pointwise) (*Stepper, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if nonlinear == nil {
		nonlinear = integrators.NewMidpoint()
	}
	gain := complex(-p.Rho, 1)
	return &Stepper{
		params:    p,
		prop:      Propagator(field.Wavenumbers(p.M), p),
		fft:       fourier.NewCmplxFFT(p.M),
		coeff:     make([]complex128, p.M),
		nonlinear: nonlinear,
		rhs: func(v complex128) complex128 {
			re, im := real(v), imag(v)
			return gain * v * complex(re*re+im*im, 0)
		},
	}, nil
}

func (s *Stepper) Params() Params { return s.params }

func (s *Stepper) Dt() float64 { return s.params.Dt }

func (s *Stepper) GridSize() int { return s.params.M }

// Propagator returns the precomputed linear half-step multipliers.
func (s *Stepper) Propagator() []complex128 { return s.prop }

// LinearHalfStep solves u_t = q²(i+c0)u_xx + ρu exactly over Dt/2. It panics
// if len(u) differs from the grid size; sim.Simulator rejects such fields with
// ErrDimensionMismatch before the first step.
func (s *Stepper) LinearHalfStep(u field.Field) field.Field {
	if len(u) != s.params.M {
		panic("spectral: field length does not match grid size")
	}
	s.fft.Coefficients(s.coeff, u)
	for j := range s.coeff {
		s.coeff[j] *= s.prop[j]
	}
	out := make(field.Field, s.params.M)
	s.fft.Sequence(out, s.coeff)
	scale := complex(1/float64(s.params.M), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// NonlinearStep advances u_t = (i−ρ)u|u|² pointwise over a full Dt.
func (s *Stepper) NonlinearStep(u field.Field) field.Field {
	return s.nonlinear.Step(s.rhs, u, s.params.Dt)
}

// Step performs one half-linear, full-nonlinear, half-linear split step.
func (s *Stepper) Step(u field.Field) field.Field {
	return s.LinearHalfStep(s.NonlinearStep(s.LinearHalfStep(u)))
}
