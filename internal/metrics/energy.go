package metrics

import (
	"math"

	"github.com/stressosaurus/dmd-introduction/internal/field"
)

// discreteEnergy is the grid quadrature of ∫|u|² dx over [0, 2π).
func discreteEnergy(u field.Field) float64 {
	if len(u) == 0 {
		return 0
	}
	n := u.Norm()
	return n * n * 2 * math.Pi / float64(len(u))
}

// Energy is the time-averaged L2 energy ∫|u|² dx.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(u field.Field, t float64) {
	e.totalEnergy += discreteEnergy(u)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation of the L2 energy from its
// initial value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(u field.Field, t float64) {
	energy := discreteEnergy(u)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / e.initialEnergy
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
