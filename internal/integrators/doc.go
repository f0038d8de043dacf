// Package integrators provides explicit one-step schemes for autonomous
// pointwise complex ODEs u_t = f(u), applied independently at every grid
// point of a field.
//
// The split-step solver uses them for its nonlinear sub-step. [Midpoint] is
// the second-order scheme used by default; [Euler] and [RK4] are available
// for comparison runs.
package integrators
