package integrators

import "github.com/stressosaurus/dmd-introduction/internal/field"

// Midpoint is the explicit second-order Runge-Kutta midpoint rule:
//
//	k1 = dt·f(v)
//	v' = v + dt·f(v + k1/2)
type Midpoint struct{}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Name() string { return "rk2" }

func (m *Midpoint) Step(f RHS, u field.Field, dt float64) field.Field {
	h := complex(dt, 0)
	result := make(field.Field, len(u))
	for i, v := range u {
		k1 := h * f(v)
		result[i] = v + h*f(v+k1/2)
	}
	return result
}
