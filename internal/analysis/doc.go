// Package analysis inspects the sampled trajectory of a stored run.
//
// The package provides:
//
//   - [PowerSpectrum]: amplitude spectrum of a uniformly sampled series
//   - [PhaseOf]: position against velocity of one body coordinate
//   - [Poincare]: the phase point each time a coordinate crosses a level
//
// # Periodic Motion
//
// The dominant frequency of a pendulum bob follows from its height series:
//
//	spectrum, err := analysis.PowerSpectrum(heights, interval)
//	freq, _ := spectrum.Dominant()
package analysis
