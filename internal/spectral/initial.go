package spectral

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/stressosaurus/dmd-introduction/internal/field"
)

// InitialCondition builds the t=0 snapshot for an M-point grid.
type InitialCondition func(m int) field.Field

// Cosine is 1 + amp·cos(mode·x). Cosine(0.02, 1) is the default seed of the
// modulational instability.
func Cosine(amp float64, mode int) InitialCondition {
	return func(m int) field.Field {
		return field.Sample(m, func(x float64) complex128 {
			return complex(1+amp*math.Cos(float64(mode)*x), 0)
		})
	}
}

// Uniform is the spatially constant field v.
func Uniform(v complex128) InitialCondition {
	return func(m int) field.Field {
		u := make(field.Field, m)
		for i := range u {
			u[i] = v
		}
		return u
	}
}

// PlaneWave is amp·exp(i·mode·x).
func PlaneWave(amp float64, mode int) InitialCondition {
	return func(m int) field.Field {
		return field.Sample(m, func(x float64) complex128 {
			return complex(amp, 0) * cmplx.Exp(complex(0, float64(mode)*x))
		})
	}
}

// Noisy is 1 plus a seeded complex perturbation of size amp per component.
func Noisy(amp float64, seed int64) InitialCondition {
	return func(m int) field.Field {
		rng := rand.New(rand.NewSource(seed))
		u := make(field.Field, m)
		for i := range u {
			u[i] = complex(1+amp*(2*rng.Float64()-1), amp*(2*rng.Float64()-1))
		}
		return u
	}
}

// InitialSpec names an initial condition and its parameters.
type InitialSpec struct {
	Kind      string
	Amplitude float64
	Mode      int
	Seed      int64
}

// NewInitial resolves an InitialSpec.
func NewInitial(spec InitialSpec) (InitialCondition, error) {
	switch spec.Kind {
	case "", "cosine":
		return Cosine(spec.Amplitude, spec.Mode), nil
	case "uniform":
		return Uniform(complex(spec.Amplitude, 0)), nil
	case "plane_wave":
		return PlaneWave(spec.Amplitude, spec.Mode), nil
	case "noise":
		return Noisy(spec.Amplitude, spec.Seed), nil
	default:
		return nil, field.Invalid("unknown initial condition %q (available: %v)", spec.Kind, InitialKinds())
	}
}

func InitialKinds() []string {
	return []string{"cosine", "noise", "plane_wave", "uniform"}
}
