package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/linalg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SpatialSpectrum returns |û_k|² with û normalised by 1/M, in FFT order
// (index j pairs with field.Wavenumbers(M)[j]).
func SpatialSpectrum(u field.Field) []float64 {
	if len(u) == 0 {
		return nil
	}
	coeff := fft.FFT([]complex128(u))
	n := float64(len(u))
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		a := cmplx.Abs(c) / n
		ps[i] = a * a
	}
	return ps
}

// PowerSpectrum returns the one-sided power |X_k|²/n² for k = 0..n/2 of a
// real signal.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	coeff := fft.FFTReal(data)
	n := float64(len(data))
	ps := make([]float64, len(data)/2+1)
	for i := range ps {
		a := cmplx.Abs(coeff[i]) / n
		ps[i] = a * a
	}
	return ps
}

// TemporalSpectrum is the power spectrum of Re u at one grid point across
// the columns of series.
func TemporalSpectrum(series mat.CMatrix, row int) []float64 {
	_, n := series.Dims()
	data := make([]float64, n)
	for j := range data {
		data[j] = real(series.At(row, j))
	}
	return PowerSpectrum(data)
}

// Frequencies returns the angular frequencies 2πk/(n·Δt), k = 0..n/2, of
// the bins of a one-sided spectrum of n samples spaced dt.
func Frequencies(n int, dt float64) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n/2+1)
	if len(w) == 1 {
		return w
	}
	floats.Span(w, 0, 2*math.Pi*float64(n/2)/(float64(n)*dt))
	return w
}

// RelativeError returns ‖a − b‖_F / ‖a‖_F, or ‖b‖_F when a is zero.
func RelativeError(a, b mat.CMatrix) float64 {
	diff := linalg.Norm(linalg.Sub(a, b))
	ref := linalg.Norm(a)
	if ref == 0 {
		return diff
	}
	return diff / ref
}

// DominantIndex returns the index of the largest value, or -1 if empty.
func DominantIndex(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}
