package field

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Field is the complex value of the periodic field at the M grid points.
type Field []complex128

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

func (f Field) IsValid() bool {
	for _, v := range f {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm of the snapshot.
func (f Field) Norm() float64 {
	sum := 0.0
	for _, v := range f {
		re, im := real(v), imag(v)
		sum += re*re + im*im
	}
	return math.Sqrt(sum)
}

func (f Field) Sub(other Field) Field {
	result := make(Field, len(f))
	for i := range f {
		if i < len(other) {
			result[i] = f[i] - other[i]
		} else {
			result[i] = f[i]
		}
	}
	return result
}

// Abs returns the pointwise modulus |u|.
func (f Field) Abs() []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = cmplx.Abs(v)
	}
	return out
}

// Real returns the pointwise real part.
func (f Field) Real() []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = real(v)
	}
	return out
}

// Grid returns the M uniformly spaced points x_j = j·2π/M of the periodic
// domain [0, 2π).
func Grid(m int) []float64 {
	x := make([]float64, m)
	if m == 1 {
		return x
	}
	dx := 2 * math.Pi / float64(m)
	floats.Span(x, 0, 2*math.Pi-dx)
	return x
}

// Wavenumbers returns the integer wavenumbers of an M-point periodic grid on
// [0, 2π) in FFT order: 0, 1, ..., ⌈M/2⌉-1 followed by the negative
// wavenumbers in ascending order.
func Wavenumbers(m int) []float64 {
	k := make([]float64, m)
	for i := 0; i < m; i++ {
		if i < (m+1)/2 {
			k[i] = float64(i)
		} else {
			k[i] = float64(i - m)
		}
	}
	return k
}

// Column copies column j of a series into a new Field.
func Column(series mat.CMatrix, j int) Field {
	r, _ := series.Dims()
	col := make(Field, r)
	for i := 0; i < r; i++ {
		col[i] = series.At(i, j)
	}
	return col
}

// SetColumn writes f into column j of dst.
func SetColumn(dst *mat.CDense, j int, f Field) {
	for i, v := range f {
		dst.Set(i, j, v)
	}
}

// Sample evaluates fn on the M-point grid.
func Sample(m int, fn func(x float64) complex128) Field {
	x := Grid(m)
	u := make(Field, m)
	for i, xi := range x {
		u[i] = fn(xi)
	}
	return u
}
