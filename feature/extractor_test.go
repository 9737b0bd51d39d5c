package feature

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-evp/internal/testutil"
)

const (
	testSampleRate = 48000.0
	testFFTSize    = 2048
	testBinHz      = testSampleRate / testFFTSize // 23.4375
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()

	e, err := NewExtractor(testSampleRate, testFFTSize)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	return e
}

func TestNewExtractorValidation(t *testing.T) {
	if _, err := NewExtractor(0, testFFTSize); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewExtractor(testSampleRate, 2); err == nil {
		t.Fatal("expected error for tiny FFT size")
	}
}

func TestExtractZeroFrame(t *testing.T) {
	e := newTestExtractor(t)

	f := e.Extract(
		testutil.Silence(testFFTSize),
		testutil.FlatSpectrumDB(testFFTSize/2, math.Inf(-1)),
	)

	if f.RMS != 0 {
		t.Fatalf("RMS = %v, want 0", f.RMS)
	}

	if !math.IsInf(f.RMS_dB, -1) {
		t.Fatalf("RMS_dB = %v, want -Inf", f.RMS_dB)
	}

	if f.Centroid != 0 {
		t.Fatalf("Centroid = %v, want 0", f.Centroid)
	}

	if f.HNR != 0 {
		t.Fatalf("HNR = %v, want 0", f.HNR)
	}

	if f.Clarity != 0 || f.VoicePattern {
		t.Fatalf("Clarity = %d, VoicePattern = %v, want 0/false", f.Clarity, f.VoicePattern)
	}
}

func TestExtractRMS(t *testing.T) {
	e := newTestExtractor(t)

	samples := make([]float64, testFFTSize)
	for i := range samples {
		samples[i] = 0.5
	}

	f := e.Extract(samples, testutil.FlatSpectrumDB(testFFTSize/2, math.Inf(-1)))

	if math.Abs(f.RMS-0.5) > 1e-12 {
		t.Fatalf("RMS = %v, want 0.5", f.RMS)
	}
}

func TestCentroidSingleBin(t *testing.T) {
	e := newTestExtractor(t)

	mags := testutil.SpectrumWithPeaksDB(testFFTSize/2, math.Inf(-1), 0, 64)

	f := e.Extract(testutil.Silence(testFFTSize), mags)

	want := 64 * testBinHz
	if math.Abs(f.Centroid-want) > 1e-9 {
		t.Fatalf("Centroid = %v, want %v", f.Centroid, want)
	}
}

func TestPeakFreqRestrictedToVoiceBand(t *testing.T) {
	e := newTestExtractor(t)

	// Strongest bin sits below 200 Hz; the voice-band peak is quieter.
	mags := testutil.FlatSpectrumDB(testFFTSize/2, -90)
	mags[3] = 0    // ~70 Hz, outside the band
	mags[50] = -20 // ~1172 Hz, inside

	f := e.Extract(testutil.Silence(testFFTSize), mags)

	want := 50 * testBinHz
	if math.Abs(f.PeakFreq-want) > 1e-9 {
		t.Fatalf("PeakFreq = %v, want %v", f.PeakFreq, want)
	}
}

func TestHNRPeriodicBeatsNoise(t *testing.T) {
	e := newTestExtractor(t)
	mags := testutil.FlatSpectrumDB(testFFTSize/2, -90)

	sine := e.Extract(testutil.DeterministicSine(440, testSampleRate, 0.5, testFFTSize), mags)
	noise := e.Extract(testutil.DeterministicNoise(1, 0.5, testFFTSize), mags)

	if sine.HNR <= noise.HNR {
		t.Fatalf("sine HNR = %v, noise HNR = %v, want sine higher", sine.HNR, noise.HNR)
	}

	if sine.HNR <= 5 {
		t.Fatalf("sine HNR = %v, want clearly periodic (> 5 dB)", sine.HNR)
	}
}

func TestFormantsClarity(t *testing.T) {
	e := newTestExtractor(t)

	// One strong, locally significant peak inside each formant band:
	// bin 17 (~398 Hz), bin 64 (1500 Hz), bin 137 (~3211 Hz).
	mags := testutil.FlatSpectrumDB(testFFTSize/2, -90)
	mags[17] = -20
	mags[64] = -10
	mags[137] = -15

	f := e.Extract(testutil.Silence(testFFTSize), mags)

	if math.Abs(f.F1-17*testBinHz) > 1e-9 {
		t.Fatalf("F1 = %v, want %v", f.F1, 17*testBinHz)
	}

	if math.Abs(f.F2-64*testBinHz) > 1e-9 {
		t.Fatalf("F2 = %v, want %v", f.F2, 64*testBinHz)
	}

	if math.Abs(f.F3-137*testBinHz) > 1e-9 {
		t.Fatalf("F3 = %v, want %v", f.F3, 137*testBinHz)
	}

	if f.Clarity != 3 {
		t.Fatalf("Clarity = %d, want 3", f.Clarity)
	}

	if !f.VoicePattern {
		t.Fatal("VoicePattern = false, want true")
	}
}

func TestFormantFloorRejectsQuietPeaks(t *testing.T) {
	e := newTestExtractor(t)

	// A band peak below the absolute floor yields no candidate.
	mags := testutil.FlatSpectrumDB(testFFTSize/2, -90)
	mags[17] = -60

	f := e.Extract(testutil.Silence(testFFTSize), mags)

	if f.F1 != 0 {
		t.Fatalf("F1 = %v, want 0 (below floor)", f.F1)
	}

	if f.Clarity != 0 {
		t.Fatalf("Clarity = %d, want 0", f.Clarity)
	}
}

func TestFormantSignificanceGatesClarity(t *testing.T) {
	e := newTestExtractor(t)

	// Candidate above the floor but buried in similarly loud bins: it is
	// reported as a formant frequency yet does not count toward clarity.
	mags := testutil.FlatSpectrumDB(testFFTSize/2, -90)
	for i := 9; i <= 38; i++ {
		mags[i] = -52
	}
	mags[17] = -50

	f := e.Extract(testutil.Silence(testFFTSize), mags)

	if f.F1 == 0 {
		t.Fatal("F1 = 0, want candidate above floor")
	}

	if f.Clarity != 0 {
		t.Fatalf("Clarity = %d, want 0 (not locally significant)", f.Clarity)
	}
}

func BenchmarkExtract(b *testing.B) {
	e, err := NewExtractor(testSampleRate, testFFTSize)
	if err != nil {
		b.Fatalf("NewExtractor: %v", err)
	}

	samples := testutil.DeterministicSine(440, testSampleRate, 0.5, testFFTSize)
	mags := testutil.SpectrumWithPeaksDB(testFFTSize/2, -80, -20, 17, 64, 137)

	b.ResetTimer()

	for range b.N {
		_ = e.Extract(samples, mags)
	}
}
