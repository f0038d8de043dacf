package sim

import (
	"context"
	"fmt"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

type Simulator struct {
	stepper   Stepper
	metrics   []Metric
	observers []Observer
}

func New(stepper Stepper) *Simulator {
	return &Simulator{
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates u0 for cfg.Steps-1 steps and returns the M×Steps series whose
// column 0 is u0. A non-finite field aborts the run with a *field.StepError.
func (s *Simulator) Run(ctx context.Context, u0 field.Field, cfg Config) (*Result, error) {
	if err := s.validate(u0, cfg); err != nil {
		return nil, err
	}

	m := len(u0)
	dt := s.stepper.Dt()
	result := &Result{
		Series:  mat.NewCDense(m, cfg.Steps, nil),
		Times:   make([]float64, cfg.Steps),
		Metrics: make(map[string]float64),
	}

	for _, metric := range s.metrics {
		metric.Reset()
	}

	u := u0.Clone()
	field.SetColumn(result.Series, 0, u)
	s.observe(0, u, 0)

	for i := 1; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := float64(i) * dt
		u = s.stepper.Step(u)

		if cfg.ValidateField && !u.IsValid() {
			return nil, &field.StepError{Step: i, Time: t, Column: i, Wrapped: field.ErrUnstable}
		}

		field.SetColumn(result.Series, i, u)
		result.Times[i] = t
		result.StepsTaken++
		s.observe(i, u, t)
	}

	for _, metric := range s.metrics {
		result.Metrics[metric.Name()] = metric.Value()
	}

	return result, nil
}

func (s *Simulator) observe(step int, u field.Field, t float64) {
	for _, metric := range s.metrics {
		metric.Observe(u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(step, u, t)
	}
}

func (s *Simulator) validate(u0 field.Field, cfg Config) error {
	if s.stepper == nil {
		return fmt.Errorf("%w: simulator has no stepper", field.ErrInvalidConfig)
	}
	if dt := s.stepper.Dt(); dt <= 0 {
		return field.Invalid("dt must be positive, got %g", dt)
	}
	if cfg.Steps <= 0 {
		return field.Invalid("step count must be positive, got %d", cfg.Steps)
	}
	if len(u0) == 0 {
		return field.Invalid("initial field is empty")
	}
	if sized, ok := s.stepper.(interface{ GridSize() int }); ok && sized.GridSize() != len(u0) {
		return fmt.Errorf("%w: initial field has %d points, grid has %d", field.ErrDimensionMismatch, len(u0), sized.GridSize())
	}
	if !u0.IsValid() {
		return &field.StepError{Step: 0, Time: 0, Column: 0, Wrapped: field.ErrUnstable}
	}
	return nil
}
