// Package testutil provides deterministic signals and synthetic dB
// spectra for tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Silence returns an all-zero sample buffer.
func Silence(length int) []float64 {
	return make([]float64, length)
}

// FlatSpectrumDB returns n magnitude bins all at the given dB level.
func FlatSpectrumDB(n int, level float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

// SpectrumWithPeaksDB returns a flat floor spectrum with the given bins
// raised to the peak level.
func SpectrumWithPeaksDB(n int, floor, peak float64, bins ...int) []float64 {
	out := FlatSpectrumDB(n, floor)
	for _, b := range bins {
		if b >= 0 && b < n {
			out[b] = peak
		}
	}
	return out
}
