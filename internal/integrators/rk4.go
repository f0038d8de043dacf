package integrators

import "github.com/stressosaurus/dmd-introduction/internal/field"

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(f RHS, u field.Field, dt float64) field.Field {
	h := complex(dt, 0)
	h6 := h / 6
	result := make(field.Field, len(u))
	for i, v := range u {
		k1 := f(v)
		k2 := f(v + h*0.5*k1)
		k3 := f(v + h*0.5*k2)
		k4 := f(v + h*k3)
		result[i] = v + h6*(k1+2*k2+2*k3+k4)
	}
	return result
}
