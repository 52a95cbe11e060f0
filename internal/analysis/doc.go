// Package analysis characterizes recorded and live trajectories.
//
//   - [PowerSpectrum], [DominantPeriod]: FFT of one coordinate series
//   - [GeneratePhasePortrait]: two recorded coordinates of one body
//   - [GeneratePoincareSection]: upward crossings of a threshold
//   - [LyapunovExponent], [LyapunovSpectrum]: divergence of perturbed ensembles
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	d, err := analysis.LyapunovExponent(ctx, specs, cfg, factory, 0, 1e-3, 5000)
//	if err == nil && d.Exponent > 0 {
//	    // separation grows exponentially
//	}
package analysis
