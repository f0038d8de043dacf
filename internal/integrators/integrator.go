package integrators

import (
	"fmt"
	"sort"

	"github.com/stressosaurus/dmd-introduction/internal/field"
)

// RHS is the right-hand side of a pointwise autonomous ODE.
type RHS func(v complex128) complex128

// Pointwise advances every point of a field by one step of size dt.
type Pointwise interface {
	Name() string
	Step(f RHS, u field.Field, dt float64) field.Field
}

var registry = map[string]func() Pointwise{
	"rk2":      func() Pointwise { return NewMidpoint() },
	"midpoint": func() Pointwise { return NewMidpoint() },
	"euler":    func() Pointwise { return NewEuler() },
	"rk4":      func() Pointwise { return NewRK4() },
}

// Get returns a fresh integrator by name.
func Get(name string) (Pointwise, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown nonlinear integrator %q (available: %v)", field.ErrInvalidConfig, name, List())
	}
	return fn(), nil
}

// List returns the registered integrator names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
