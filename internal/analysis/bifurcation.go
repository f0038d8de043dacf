package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
)

// StepperFactory builds a stepper for one value of the swept parameter.
type StepperFactory func(value float64) (sim.Stepper, error)

// BifurcationPoint holds the distinct peak amplitudes seen for one parameter
// value after the transient.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// Sweep integrates u0 for each parameter value, discards transient steps and
// records the distinct values of max|u| over the next record steps.
// Amplitudes are considered equal when they agree to 1e-3. Values are swept
// concurrently; build must return an independent stepper on every call.
func Sweep(build StepperFactory, params []float64, u0 field.Field, transient, record int) ([]BifurcationPoint, error) {
	if transient < 0 || record <= 0 {
		return nil, field.Invalid("sweep needs transient >= 0 and record > 0, got %d and %d", transient, record)
	}

	results := make([]BifurcationPoint, len(params))
	errs := make([]error, len(params))
	sim.ParallelFor(len(params), 1, func(start, end int) {
		for i := start; i < end; i++ {
			results[i], errs[i] = sweepOne(build, params[i], u0, transient, record)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func sweepOne(build StepperFactory, param float64, u0 field.Field, transient, record int) (BifurcationPoint, error) {
	s, err := build(param)
	if err != nil {
		return BifurcationPoint{}, fmt.Errorf("sweep at %g: %w", param, err)
	}

	u := u0.Clone()
	values := make([]float64, 0, 16)
	seen := make(map[int]bool)
	for i := 0; i < transient+record; i++ {
		u = s.Step(u)
		if !u.IsValid() {
			step := i + 1
			return BifurcationPoint{}, fmt.Errorf("sweep at %g: %w", param,
				&field.StepError{Step: step, Time: float64(step) * s.Dt(), Column: step, Wrapped: field.ErrUnstable})
		}
		if i < transient {
			continue
		}

		peak := 0.0
		for _, a := range u.Abs() {
			peak = math.Max(peak, a)
		}
		key := int(math.Round(peak * 1000))
		if !seen[key] {
			seen[key] = true
			values = append(values, peak)
		}
	}
	return BifurcationPoint{Param: param, Values: values}, nil
}

// BifurcationToASCII renders a sweep as a width×height character plot.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, v := range p.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 1) {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newCanvas(width, height)
	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return canvasString(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	return canvas
}

func canvasString(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
