// Package viz provides the terminal viewer for stored field series.
//
// [Model] is a Bubble Tea program that scrubs through the columns of a
// series, plotting |u(x)| with asciigraph and, when a DMD reconstruction is
// supplied, overlaying |û(x)| for comparison. A side panel traces u at one
// grid point in the complex plane on a Braille [Canvas].
//
// # Key Bindings
//
//	←/→ h/l - previous/next snapshot
//	Home/End - first/last snapshot
//	Space   - autoplay
//	↑/↓ k/j - move the traced grid point
//	D       - toggle reconstruction overlay
//	T       - cycle color themes
//	Q       - quit
package viz
