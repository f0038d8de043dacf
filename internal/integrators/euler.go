package integrators

import "github.com/stressosaurus/dmd-introduction/internal/field"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(f RHS, u field.Field, dt float64) field.Field {
	result := make(field.Field, len(u))
	for i, v := range u {
		result[i] = v + complex(dt, 0)*f(v)
	}
	return result
}
