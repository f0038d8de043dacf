// Package analysis provides diagnostics for simulated and reconstructed
// fields.
//
//   - [SpatialSpectrum], [TemporalSpectrum]: power spectra via go-dsp
//   - [RelativeError]: Frobenius error between a series and its reconstruction
//   - [LyapunovExponent]: largest finite-time exponent by trajectory separation
//   - [Sweep]: peak-amplitude diagram over a parameter range
//   - [PhasePortrait]: Re u against Im u at one grid point
//
// Temporal spectra are reported at angular frequencies ([Frequencies]) so
// they can be read against DMD rates Im ω directly:
//
//	ps := analysis.TemporalSpectrum(series, 0)
//	_, n := series.Dims()
//	w := analysis.Frequencies(n, dt)
//	peak := w[analysis.DominantIndex(ps[1:])+1]
package analysis
