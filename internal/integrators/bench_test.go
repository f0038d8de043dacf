package integrators

import (
	"math/cmplx"
	"testing"

	"github.com/stressosaurus/dmd-introduction/internal/field"
)

func benchField(n int) field.Field {
	u := make(field.Field, n)
	for i := range u {
		u[i] = complex(1, float64(i)*1e-3)
	}
	return u
}

func cubic(v complex128) complex128 {
	a := cmplx.Abs(v)
	return complex(-0.25, 1) * v * complex(a*a, 0)
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	u := benchField(512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u = integrator.Step(cubic, u, 0.01)
	}
}

func BenchmarkMidpoint(b *testing.B) {
	integrator := NewMidpoint()
	u := benchField(512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u = integrator.Step(cubic, u, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	u := benchField(512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u = integrator.Step(cubic, u, 0.01)
	}
}
