package analysis

import (
	"math"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
)

// LyapunovExponent estimates the largest finite-time Lyapunov exponent of the
// stepper around u0 by trajectory separation. The first grid point is
// perturbed by the given amount and the separation is renormalised to it
// after every step. A positive value indicates sensitive dependence.
func LyapunovExponent(s sim.Stepper, u0 field.Field, steps int, perturbation float64) float64 {
	if len(u0) == 0 || steps <= 0 || perturbation <= 0 {
		return 0
	}

	u := u0.Clone()
	up := u0.Clone()
	up[0] += complex(perturbation, 0)

	sumLog := 0.0
	count := 0
	for i := 0; i < steps; i++ {
		u = s.Step(u)
		up = s.Step(up)
		if !u.IsValid() || !up.IsValid() {
			break
		}

		sep := up.Sub(u).Norm()
		if sep == 0 {
			break
		}
		sumLog += math.Log(sep / perturbation)
		count++

		scale := complex(perturbation/sep, 0)
		for j := range up {
			up[j] = u[j] + (up[j]-u[j])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * s.Dt())
}
