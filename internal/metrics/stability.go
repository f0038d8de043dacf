package metrics

import (
	"math/cmplx"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
)

// Peak is the largest |u| seen over the run.
type Peak struct {
	name string
	peak float64
}

func NewPeak() *Peak {
	return &Peak{name: "peak_amplitude"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(u field.Field, t float64) {
	for _, v := range u {
		if a := cmplx.Abs(v); a > p.peak {
			p.peak = a
		}
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() { p.peak = 0 }

// Stability is the fraction of snapshots whose amplitude stays below
// threshold everywhere.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(u field.Field, t float64) {
	s.samples++
	for _, v := range u {
		if cmplx.Abs(v) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Default returns the metrics recorded for every run.
func Default() []sim.Metric {
	return []sim.Metric{NewEnergy(), NewEnergyDrift(), NewPeak(), NewStability(10)}
}
