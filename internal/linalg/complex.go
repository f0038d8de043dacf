package linalg

import (
	"math"
	"math/cmplx"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

// Realify returns the 2m×2n real embedding of c.
func Realify(c mat.CMatrix) *mat.Dense {
	m, n := c.Dims()
	r := mat.NewDense(2*m, 2*n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := c.At(i, j)
			r.Set(i, j, real(v))
			r.Set(i, j+n, -imag(v))
			r.Set(i+m, j, imag(v))
			r.Set(i+m, j+n, real(v))
		}
	}
	return r
}

// stack returns the 2m×n matrix [Re c; Im c], the first block column of
// Realify(c).
func stack(c mat.CMatrix) *mat.Dense {
	m, n := c.Dims()
	r := mat.NewDense(2*m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := c.At(i, j)
			r.Set(i, j, real(v))
			r.Set(i+m, j, imag(v))
		}
	}
	return r
}

func unstack(r mat.Matrix, m, n int) *mat.CDense {
	c := mat.NewCDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			c.Set(i, j, complex(r.At(i, j), r.At(i+m, j)))
		}
	}
	return c
}

// Mul returns the complex product a·b.
func Mul(a, b mat.CMatrix) *mat.CDense {
	am, an := a.Dims()
	bm, bn := b.Dims()
	if an != bm {
		panic(mat.ErrShape)
	}
	var r mat.Dense
	r.Mul(Realify(a), stack(b))
	return unstack(&r, am, bn)
}

// MulH returns aᴴ·b.
func MulH(a, b mat.CMatrix) *mat.CDense {
	am, an := a.Dims()
	bm, bn := b.Dims()
	if am != bm {
		panic(mat.ErrShape)
	}
	var r mat.Dense
	r.Mul(Realify(a).T(), stack(b))
	return unstack(&r, an, bn)
}

// MulVec returns a·x.
func MulVec(a mat.CMatrix, x []complex128) field.Field {
	m, n := a.Dims()
	if n != len(x) {
		panic(mat.ErrShape)
	}
	out := make(field.Field, m)
	for i := 0; i < m; i++ {
		var sum complex128
		for j := 0; j < n; j++ {
			sum += a.At(i, j) * x[j]
		}
		out[i] = sum
	}
	return out
}

// ScaleColumns multiplies column j of c by s[j] in place.
func ScaleColumns(c *mat.CDense, s []complex128) {
	m, n := c.Dims()
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			c.Set(i, j, c.At(i, j)*s[j])
		}
	}
}

// Columns copies columns [from, to) of c.
func Columns(c mat.CMatrix, from, to int) *mat.CDense {
	m, _ := c.Dims()
	out := mat.NewCDense(m, to-from, nil)
	for j := from; j < to; j++ {
		for i := 0; i < m; i++ {
			out.Set(i, j-from, c.At(i, j))
		}
	}
	return out
}

// Sub returns a − b.
func Sub(a, b mat.CMatrix) *mat.CDense {
	m, n := a.Dims()
	bm, bn := b.Dims()
	if m != bm || n != bn {
		panic(mat.ErrShape)
	}
	out := mat.NewCDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, a.At(i, j)-b.At(i, j))
		}
	}
	return out
}

// Norm returns the Frobenius norm of c.
func Norm(c mat.CMatrix) float64 {
	return mat.Norm(stack(c), 2)
}

// IsFinite reports whether every entry of c is finite.
func IsFinite(c mat.CMatrix) bool {
	m, n := c.Dims()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := c.At(i, j)
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}

// orthogonalize removes from v its components along the orthonormal basis
// vectors (two passes of modified Gram-Schmidt) and returns the norm of what
// is left.
func orthogonalize(v []complex128, basis [][]complex128) float64 {
	for pass := 0; pass < 2; pass++ {
		for _, b := range basis {
			var c complex128
			for i := range v {
				c += cmplx.Conj(b[i]) * v[i]
			}
			for i := range v {
				v[i] -= c * b[i]
			}
		}
	}
	return vecNorm(v)
}

func vecNorm(v []complex128) float64 {
	sum := 0.0
	for _, x := range v {
		re, im := real(x), imag(x)
		sum += re*re + im*im
	}
	return math.Sqrt(sum)
}

func scaleVec(v []complex128, s float64) {
	f := complex(s, 0)
	for i := range v {
		v[i] *= f
	}
}
