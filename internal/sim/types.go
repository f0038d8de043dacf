package sim

import (
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

// Stepper advances a field by one step of its fixed time step.
type Stepper interface {
	Step(u field.Field) field.Field
	Dt() float64
}

type Metric interface {
	Name() string
	Observe(u field.Field, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, u field.Field, t float64)
}

// Config controls one run. Steps counts snapshots, including the initial one.
type Config struct {
	Steps         int
	ValidateField bool
}

func DefaultConfig() Config {
	return Config{
		Steps:         2000,
		ValidateField: true,
	}
}

// Result holds the M×Steps time series and run diagnostics.
type Result struct {
	Series     *mat.CDense
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
}

// Snapshot returns column j of the series.
func (r *Result) Snapshot(j int) field.Field {
	return field.Column(r.Series, j)
}
