package feature

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	// VoiceBandLowHz and VoiceBandHighHz bound the voice-relevant
	// sub-band used for peak search and anomaly evaluation.
	VoiceBandLowHz  = 200.0
	VoiceBandHighHz = 4000.0

	// Pitch search range for the autocorrelation HNR estimate.
	pitchLowHz  = 80.0
	pitchHighHz = 4000.0

	// Formant candidate bands (F1, F2, F3).
	f1LowHz  = 200.0
	f1HighHz = 900.0
	f2LowHz  = 500.0
	f2HighHz = 3000.0
	f3LowHz  = 2000.0
	f3HighHz = 3500.0

	// A formant candidate must rise above this absolute level.
	formantFloorDB = -55.0

	// Local significance test: the candidate peak must exceed the mean
	// level of the surrounding bins (excluding immediate neighbors) by
	// this margin.
	formantMarginDB   = 6.0
	formantWindowBins = 8

	// Energy below this is treated as silence for the HNR estimate.
	energyEpsilon = 1e-10
)

// Features holds the per-frame feature vector.
//
//nolint:revive
type Features struct {
	RMS      float64
	RMS_dB   float64
	Centroid float64 // magnitude-weighted mean frequency (Hz)
	PeakFreq float64 // voice-band peak frequency (Hz)
	HNR      float64 // harmonic-to-noise ratio (dB)
	F1       float64 // formant candidates (Hz, 0 if absent)
	F2       float64
	F3       float64
	Clarity  int // formant candidates passing the significance test (0..3)

	// VoicePattern is true when at least two formants are clearly
	// articulated, the minimal spectral signature of voiced speech.
	VoicePattern bool
}

// band is an inclusive bin range.
type band struct {
	low, high int
}

// Extractor computes Features for frames of a fixed analyser
// configuration (sample rate and FFT size established once per session).
type Extractor struct {
	sampleRate float64
	binHz      float64
	binCount   int

	voice   band
	f1      band
	f2      band
	f3      band
	lagMin  int
	lagMax  int
	linear  []float64 // scratch: linear magnitudes of the last frame
}

// NewExtractor creates an extractor for the given analyser configuration.
// The magnitude spectrum passed to Extract must contain fftSize/2 bins
// with a resolution of sampleRate/fftSize Hz per bin.
func NewExtractor(sampleRate float64, fftSize int) (*Extractor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("extractor sample rate must be > 0: %f", sampleRate)
	}

	if fftSize < 4 {
		return nil, fmt.Errorf("extractor FFT size must be >= 4: %d", fftSize)
	}

	binCount := fftSize / 2
	binHz := sampleRate / float64(fftSize)

	e := &Extractor{
		sampleRate: sampleRate,
		binHz:      binHz,
		binCount:   binCount,
		voice:      binBand(VoiceBandLowHz, VoiceBandHighHz, binHz, binCount),
		f1:         binBand(f1LowHz, f1HighHz, binHz, binCount),
		f2:         binBand(f2LowHz, f2HighHz, binHz, binCount),
		f3:         binBand(f3LowHz, f3HighHz, binHz, binCount),
	}

	e.lagMin = max(int(sampleRate/pitchHighHz), 1)
	e.lagMax = int(sampleRate / pitchLowHz)

	return e, nil
}

// BinCount returns the expected magnitude bin count per frame.
func (e *Extractor) BinCount() int { return e.binCount }

// BinResolution returns the frequency step per bin in Hz.
func (e *Extractor) BinResolution() float64 { return e.binHz }

// Extract computes the feature vector for one frame. samples holds
// time-domain values in [-1, 1]; magsDB holds per-bin magnitudes in dB.
func (e *Extractor) Extract(samples, magsDB []float64) Features {
	e.linear = core.EnsureLen(e.linear, len(magsDB))
	for i, db := range magsDB {
		e.linear[i] = math.Pow(10, db/20)
	}

	var f Features
	f.RMS = rms(samples)
	f.RMS_dB = ampTodB(f.RMS)
	f.Centroid = e.centroid(e.linear)
	f.PeakFreq = e.peakFreq(e.linear)
	f.HNR = e.hnr(samples)
	f.F1, f.F2, f.F3, f.Clarity = e.formants(magsDB, e.linear)
	f.VoicePattern = f.Clarity >= 2

	return f
}

// Linear returns the linear-scale magnitudes of the most recent frame.
// The slice is reused on the next call to Extract.
func (e *Extractor) Linear() []float64 { return e.linear }

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	sumSq := 0.0
	for _, x := range samples {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(samples)))
}

// centroid returns the magnitude-weighted mean frequency in Hz, or 0 for
// an all-zero spectrum.
func (e *Extractor) centroid(linear []float64) float64 {
	sum := 0.0
	weighted := 0.0

	for i, v := range linear {
		sum += v
		weighted += float64(i) * e.binHz * v
	}

	if sum == 0 {
		return 0
	}

	return weighted / sum
}

// peakFreq returns the frequency of the strongest voice-band bin.
func (e *Extractor) peakFreq(linear []float64) float64 {
	low, high := e.voice.low, e.voice.high
	if high >= len(linear) {
		high = len(linear) - 1
	}

	if low > high {
		return 0
	}

	peakBin := low
	peakVal := linear[low]

	for i := low + 1; i <= high; i++ {
		if linear[i] > peakVal {
			peakVal = linear[i]
			peakBin = i
		}
	}

	return float64(peakBin) * e.binHz
}

// hnr estimates the harmonic-to-noise ratio in dB from the best
// normalized autocorrelation over the pitch lag range.
//
//	HNR = 10*log10(r / (1 - r))
//
// Returns 0 for silent frames and for correlations outside (0, 1).
func (e *Extractor) hnr(samples []float64) float64 {
	n := len(samples)

	energy := 0.0
	for _, x := range samples {
		energy += x * x
	}

	if energy < energyEpsilon {
		return 0
	}

	lagMax := e.lagMax
	if lagMax > n-1 {
		lagMax = n - 1
	}

	best := 0.0

	for lag := e.lagMin; lag <= lagMax; lag++ {
		sum := 0.0
		for i := 0; i < n-lag; i++ {
			sum += samples[i] * samples[i+lag]
		}

		r := sum / energy
		if r > best {
			best = r
		}
	}

	if best <= 0 || best >= 1 {
		return 0
	}

	return 10 * math.Log10(best/(1-best))
}

// formants locates the strongest bin inside each formant band, accepts it
// as a candidate if it clears the absolute floor, and counts it toward
// clarity only if it additionally stands out from its spectral
// surroundings.
func (e *Extractor) formants(magsDB, linear []float64) (f1, f2, f3 float64, clarity int) {
	pick := func(b band) float64 {
		bin, ok := e.bandPeak(linear, b)
		if !ok || magsDB[bin] < formantFloorDB {
			return 0
		}

		if e.significant(magsDB, bin) {
			clarity++
		}

		return float64(bin) * e.binHz
	}

	f1 = pick(e.f1)
	f2 = pick(e.f2)
	f3 = pick(e.f3)

	return f1, f2, f3, clarity
}

func (e *Extractor) bandPeak(linear []float64, b band) (int, bool) {
	low, high := b.low, b.high
	if high >= len(linear) {
		high = len(linear) - 1
	}

	if low > high {
		return 0, false
	}

	peakBin := low
	peakVal := linear[low]

	for i := low + 1; i <= high; i++ {
		if linear[i] > peakVal {
			peakVal = linear[i]
			peakBin = i
		}
	}

	return peakBin, true
}

// significant reports whether the peak at bin exceeds the mean level of a
// surrounding window (immediate neighbors excluded) by the formant margin.
func (e *Extractor) significant(magsDB []float64, bin int) bool {
	low := max(bin-formantWindowBins, 0)
	high := min(bin+formantWindowBins, len(magsDB)-1)

	sum := 0.0
	count := 0

	for i := low; i <= high; i++ {
		if i >= bin-1 && i <= bin+1 {
			continue
		}

		sum += magsDB[i]
		count++
	}

	if count == 0 {
		return false
	}

	return magsDB[bin] >= sum/float64(count)+formantMarginDB
}

// binBand converts a frequency range to an inclusive bin range, clamped
// to [1, binCount-1] so the DC bin never participates.
func binBand(lowHz, highHz, binHz float64, binCount int) band {
	low := int(math.Ceil(lowHz / binHz))
	if low < 1 {
		low = 1
	}

	high := int(math.Floor(highHz / binHz))
	if high > binCount-1 {
		high = binCount - 1
	}

	return band{low: low, high: high}
}

// ampTodB converts an amplitude value to decibels: 20 * log10(|value|).
// Returns -Inf for zero values.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}
