// Package feature extracts a per-frame spectral feature vector from a
// time-domain sample buffer and its magnitude spectrum.
//
// The package intentionally does not implement FFT itself. It operates on
// dB-scaled magnitude bins produced by an external analyser (one bin per
// frequency step up to Nyquist) and computes the scalar descriptors used
// by the downstream anomaly pipeline: RMS, spectral centroid, voice-band
// peak frequency, an autocorrelation-based harmonic-to-noise ratio, and
// three formant candidates with a clarity count.
//
// All computations are pure given their inputs; degenerate frames (zero
// energy, empty spectra) yield neutral zero values rather than errors.
package feature
