package experiment

import (
	"fmt"
	"sort"

	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/integrators"
	"github.com/stressosaurus/dmd-introduction/internal/metrics"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
	"github.com/stressosaurus/dmd-introduction/internal/spectral"
)

// Registry resolves nonlinear sub-steppers and initial conditions by name.
type Registry struct {
	nonlinear map[string]func() integrators.Pointwise
	initials  map[string]func(spectral.InitialSpec) spectral.InitialCondition
}

func NewRegistry() *Registry {
	r := &Registry{
		nonlinear: make(map[string]func() integrators.Pointwise),
		initials:  make(map[string]func(spectral.InitialSpec) spectral.InitialCondition),
	}

	for _, name := range integrators.List() {
		r.nonlinear[name] = func() integrators.Pointwise {
			nl, _ := integrators.Get(name)
			return nl
		}
	}

	r.initials["cosine"] = func(s spectral.InitialSpec) spectral.InitialCondition {
		return spectral.Cosine(s.Amplitude, s.Mode)
	}
	r.initials["uniform"] = func(s spectral.InitialSpec) spectral.InitialCondition {
		return spectral.Uniform(complex(s.Amplitude, 0))
	}
	r.initials["plane_wave"] = func(s spectral.InitialSpec) spectral.InitialCondition {
		return spectral.PlaneWave(s.Amplitude, s.Mode)
	}
	r.initials["noise"] = func(s spectral.InitialSpec) spectral.InitialCondition {
		return spectral.Noisy(s.Amplitude, s.Seed)
	}

	return r
}

// RegisterInitial adds or replaces an initial condition.
func (r *Registry) RegisterInitial(name string, fn func(spectral.InitialSpec) spectral.InitialCondition) {
	r.initials[name] = fn
}

func (r *Registry) GetNonlinear(name string) (integrators.Pointwise, error) {
	if name == "" {
		name = "rk2"
	}
	fn, ok := r.nonlinear[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown nonlinear integrator %q", field.ErrInvalidConfig, name)
	}
	return fn(), nil
}

func (r *Registry) GetInitial(spec spectral.InitialSpec) (spectral.InitialCondition, error) {
	name := spec.Kind
	if name == "" {
		name = "cosine"
	}
	fn, ok := r.initials[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown initial condition %q", field.ErrInvalidConfig, name)
	}
	return fn(spec), nil
}

func (r *Registry) ListNonlinear() []string { return sortedKeys(r.nonlinear) }

func (r *Registry) ListInitials() []string { return sortedKeys(r.initials) }

// DefaultMetrics returns fresh instances of the metrics recorded for a run.
func (r *Registry) DefaultMetrics() []sim.Metric {
	return metrics.Default()
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
