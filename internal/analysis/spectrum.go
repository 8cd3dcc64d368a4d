package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var (
	ErrTooShort = errors.New("analysis: series too short")
	ErrNoBody   = errors.New("analysis: body not found")
)

// MinSamples is the shortest series PowerSpectrum accepts.
const MinSamples = 4

// Spectrum is the one-sided amplitude spectrum of a real series.
// Amplitude[k] belongs to the frequency k*Resolution.
type Spectrum struct {
	Amplitude  []float64
	Resolution float64
}

// PowerSpectrum removes the mean of data and transforms it. interval is
// the time between samples.
func PowerSpectrum(data []float64, interval float64) (Spectrum, error) {
	if len(data) < MinSamples {
		return Spectrum{}, fmt.Errorf("%w: %d samples", ErrTooShort, len(data))
	}
	if !(interval > 0) {
		return Spectrum{}, fmt.Errorf("analysis: sample interval must be positive, got %v", interval)
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	c := fft.FFTReal(centered)
	n := len(c)
	amp := make([]float64, n/2+1)
	for k := range amp {
		amp[k] = cmplx.Abs(c[k]) / float64(n)
	}
	return Spectrum{Amplitude: amp, Resolution: 1 / (float64(n) * interval)}, nil
}

// Dominant returns the frequency and amplitude of the strongest non-zero
// bin. A flat series has no dominant frequency and returns zeros.
func (s Spectrum) Dominant() (freq, amp float64) {
	best := 0
	for k := 1; k < len(s.Amplitude); k++ {
		if s.Amplitude[k] > amp {
			amp, best = s.Amplitude[k], k
		}
	}
	return float64(best) * s.Resolution, amp
}

// Below returns the amplitudes of the bins under freq.
func (s Spectrum) Below(freq float64) []float64 {
	n := len(s.Amplitude)
	if s.Resolution > 0 {
		n = min(n, int(freq/s.Resolution)+1)
	}
	return s.Amplitude[:max(n, 0)]
}
