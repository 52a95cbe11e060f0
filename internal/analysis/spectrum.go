package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrShortSeries = errors.New("analysis: series too short")

// PowerSpectrum returns the amplitude of the first n/2 frequency bins of
// data with its mean removed. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	spectrum := fft.FFTReal(centred)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantPeriod is the period of the strongest non-constant bin of a
// series sampled every dt seconds.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	if len(data) < 4 {
		return 0, ErrShortSeries
	}
	ps := PowerSpectrum(data)

	peak := 0
	for k := 1; k < len(ps); k++ {
		if peak == 0 || ps[k] > ps[peak] {
			peak = k
		}
	}
	if peak == 0 || ps[peak] == 0 {
		return 0, errors.New("analysis: no periodic component")
	}

	// Parabolic interpolation between neighbouring bins.
	k := float64(peak)
	if peak > 1 && peak < len(ps)-1 {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if den := a - 2*b + c; den != 0 {
			k += 0.5 * (a - c) / den
		}
	}

	return float64(len(data)) * dt / k, nil
}
