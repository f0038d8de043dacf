// Package spectral implements the Strang split-step Fourier solver for the
// complex Ginzburg-Landau equation on the periodic domain [0, 2π):
//
//	u_t = q²(i + c0)·u_xx + ρ·u + (i − ρ)·u|u|²
//
// Each step applies an exact linear half-step in Fourier space, a full
// explicit nonlinear step at every grid point and a second linear half-step.
// The linear propagator and the FFT plan are built once in [New] and reused
// for every step.
//
//	st, _ := spectral.New(spectral.Params{M: 512, Dt: 0.01, C0: 0.25, Rho: 0.25, Q: 0.95}, integrators.NewMidpoint())
//	u1 := st.Step(u0)
package spectral
