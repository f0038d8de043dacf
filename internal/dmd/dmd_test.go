package dmd_test

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stressosaurus/dmd-introduction/internal/dmd"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

const gridSize = 16

func fourierMode(p int) field.Field {
	scale := complex(1/math.Sqrt(gridSize), 0)
	return field.Sample(gridSize, func(x float64) complex128 {
		return cmplx.Exp(complex(0, float64(p)*x)) * scale
	})
}

func normalized(v field.Field) field.Field {
	out := v.Clone()
	n := complex(v.Norm(), 0)
	for i := range out {
		out[i] /= n
	}
	return out
}

// recurrence builds x_j = Σ b_p λ_p^j v_p for j = 0..n−1.
func recurrence(vectors []field.Field, lambda, amps []complex128, n int) *mat.CDense {
	m := len(vectors[0])
	x := mat.NewCDense(m, n, nil)
	for j := 0; j < n; j++ {
		col := make(field.Field, m)
		for p, v := range vectors {
			c := amps[p] * cmplx.Pow(lambda[p], complex(float64(j), 0))
			for i := range col {
				col[i] += c * v[i]
			}
		}
		field.SetColumn(x, j, col)
	}
	return x
}

// alignment is |⟨a, b⟩| / (‖a‖‖b‖).
func alignment(a, b field.Field) float64 {
	var dot complex128
	for i := range a {
		dot += cmplx.Conj(a[i]) * b[i]
	}
	return cmplx.Abs(dot) / (a.Norm() * b.Norm())
}

func closestIndex(values []complex128, target complex128) int {
	best, dist := -1, math.Inf(1)
	for j, v := range values {
		if d := cmplx.Abs(v - target); d < dist {
			best, dist = j, d
		}
	}
	return best
}

var _ = Describe("Fit", func() {
	const dt = 0.1

	lambda := []complex128{
		cmplx.Rect(0.9, 0.3),
		cmplx.Rect(0.95, -0.7),
		cmplx.Rect(1.0, 1.1),
	}
	amps := []complex128{1, 0.5 + 0.5i, 2}

	recovers := func(vectors []field.Field) {
		x := recurrence(vectors, lambda, amps, 10)

		model, err := dmd.Fit(x, dmd.Options{Rank: 3, Dt: dt})
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Rank).To(Equal(3))
		Expect(model.Lambda).To(HaveLen(3))

		for p, want := range lambda {
			j := closestIndex(model.Lambda, want)
			Expect(cmplx.Abs(model.Lambda[j]-want)).To(BeNumerically("<", 1e-8))
			Expect(cmplx.Abs(model.Omega[j]-cmplx.Log(want)/dt)).To(BeNumerically("<", 1e-7))
			Expect(alignment(field.Column(model.Modes, j), vectors[p])).To(BeNumerically("~", 1, 1e-8))
		}
	}

	Context("with orthonormal Fourier modes", func() {
		It("recovers eigenvalues, rates and modes", func() {
			recovers([]field.Field{fourierMode(1), fourierMode(2), fourierMode(5)})
		})
	})

	Context("with non-orthogonal modes", func() {
		It("recovers eigenvalues, rates and modes", func() {
			f1, f2, f5 := fourierMode(1), fourierMode(2), fourierMode(5)
			v2 := make(field.Field, gridSize)
			v3 := make(field.Field, gridSize)
			for i := range v2 {
				v2[i] = f1[i] + f2[i]
				v3[i] = f2[i] + 1i*f5[i] - 0.3*f1[i]
			}
			recovers([]field.Field{f1, normalized(v2), normalized(v3)})
		})
	})

	Context("with seeded random complex modes", func() {
		It("recovers a decaying real eigenvalue among oscillating ones", func() {
			rng := rand.New(rand.NewSource(11))
			vectors := make([]field.Field, 4)
			for p := range vectors {
				v := make(field.Field, 20)
				for i := range v {
					v[i] = complex(rng.NormFloat64(), rng.NormFloat64())
				}
				vectors[p] = normalized(v)
			}
			randLambda := append([]complex128{0.5}, lambda...)
			randAmps := []complex128{1.5, 1, 0.5 + 0.5i, 2}
			x := recurrence(vectors, randLambda, randAmps, 10)

			model, err := dmd.Fit(x, dmd.Options{Rank: 4, Dt: dt})
			Expect(err).NotTo(HaveOccurred())
			Expect(model.Lambda).To(HaveLen(4))

			for p, want := range randLambda {
				j := closestIndex(model.Lambda, want)
				Expect(cmplx.Abs(model.Lambda[j]-want)).To(BeNumerically("<", 1e-8))
				Expect(alignment(field.Column(model.Modes, j), vectors[p])).To(BeNumerically("~", 1, 1e-8))
			}

			x0 := field.Column(x, 0)
			Expect(model.Reconstruct(0).Sub(x0).Norm()).To(BeNumerically("<", 1e-8*x0.Norm()))
		})
	})

	Describe("Reconstruct", func() {
		var (
			x     *mat.CDense
			model *dmd.Model
		)

		BeforeEach(func() {
			x = recurrence([]field.Field{fourierMode(1), fourierMode(3), fourierMode(4)}, lambda, amps, 12)
			var err error
			model, err = dmd.Fit(linalg.Columns(x, 0, 8), dmd.Options{Rank: 3, Dt: dt})
			Expect(err).NotTo(HaveOccurred())
		})

		It("equals Φ·b at τ = 0", func() {
			want := linalg.MulVec(model.Modes, model.Amplitudes)
			got := model.Reconstruct(0)
			Expect(got.Sub(want).Norm()).To(BeNumerically("<", 1e-14*(1+want.Norm())))
		})

		It("reproduces the first snapshot when the rank covers the data", func() {
			x0 := field.Column(x, 0)
			Expect(model.Reconstruct(0).Sub(x0).Norm()).To(BeNumerically("<", 1e-9*x0.Norm()))
		})

		It("forecasts past the fitted window", func() {
			for j := 8; j < 12; j++ {
				want := field.Column(x, j)
				got := model.Func()(float64(j) * dt)
				Expect(got.Sub(want).Norm()).To(BeNumerically("<", 1e-8*want.Norm()))
			}
		})

		It("builds a series on the snapshot grid", func() {
			series := model.Series(12)
			Expect(linalg.Norm(linalg.Sub(series, x))).To(BeNumerically("<", 1e-8*linalg.Norm(x)))
			Expect(model.Series(0)).To(BeNil())
		})
	})

	Describe("rank selection by energy", func() {
		It("picks the numerical rank of the data", func() {
			x := recurrence([]field.Field{fourierMode(1), fourierMode(2), fourierMode(5)}, lambda, amps, 10)
			model, err := dmd.Fit(x, dmd.Options{Energy: 0.999999, Dt: dt})
			Expect(err).NotTo(HaveOccurred())
			Expect(model.Rank).To(Equal(3))
			Expect(model.Singular).To(HaveLen(9))
		})
	})

	Describe("Spectrum", func() {
		It("orders modes by amplitude", func() {
			x := recurrence([]field.Field{fourierMode(1), fourierMode(2), fourierMode(5)}, lambda, amps, 10)
			model, err := dmd.Fit(x, dmd.Options{Rank: 3, Dt: dt})
			Expect(err).NotTo(HaveOccurred())

			spec := model.Spectrum()
			Expect(spec).To(HaveLen(3))
			Expect(spec[0].Amplitude).To(BeNumerically(">=", spec[1].Amplitude))
			Expect(spec[1].Amplitude).To(BeNumerically(">=", spec[2].Amplitude))
			Expect(spec[0].Frequency).To(BeNumerically("~", 1.1/dt, 1e-6))
			Expect(spec[0].Growth).To(BeNumerically("~", 0, 1e-6))
			Expect(spec[0].Magnitude).To(BeNumerically("~", 1, 1e-8))
		})
	})

	Describe("degenerate input", func() {
		It("rejects a rank above the numerical rank without NaN output", func() {
			x := recurrence([]field.Field{fourierMode(1), fourierMode(2), fourierMode(5)}, lambda, amps, 10)
			model, err := dmd.Fit(x, dmd.Options{Rank: 4, Dt: dt})
			Expect(model).To(BeNil())
			Expect(errors.Is(err, field.ErrDegenerate)).To(BeTrue())

			var de *field.DegeneracyError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Stage).To(Equal("svd"))
			Expect(de.Index).To(Equal(3))
		})

		It("rejects a vanishing eigenvalue before taking its logarithm", func() {
			x := recurrence([]field.Field{fourierMode(1), fourierMode(2)}, []complex128{0.9i, 0}, []complex128{1, 1}, 4)
			_, err := dmd.Fit(x, dmd.Options{Rank: 2, Dt: dt})

			var de *field.DegeneracyError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Stage).To(Equal("log"))
		})
	})

	DescribeTable("invalid options",
		func(cols int, opts dmd.Options) {
			x := recurrence([]field.Field{fourierMode(1)}, []complex128{1}, []complex128{1}, cols)
			_, err := dmd.Fit(x, opts)
			Expect(errors.Is(err, field.ErrInvalidConfig)).To(BeTrue())
		},
		Entry("single snapshot", 1, dmd.Options{Rank: 1, Dt: dt}),
		Entry("zero dt", 5, dmd.Options{Rank: 1}),
		Entry("negative dt", 5, dmd.Options{Rank: 1, Dt: -1}),
		Entry("rank above L−1", 3, dmd.Options{Rank: 3, Dt: dt}),
		Entry("negative rank", 5, dmd.Options{Rank: -1, Dt: dt}),
		Entry("no rank and no energy", 5, dmd.Options{Dt: dt}),
		Entry("energy above one", 5, dmd.Options{Energy: 1.5, Dt: dt}),
		Entry("negative tolerance", 5, dmd.Options{Rank: 1, Dt: dt, Tolerance: -1}),
	)
})
