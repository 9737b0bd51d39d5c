// Package classify reduces finalized segments to the three-tier A/B/C
// confidence taxonomy borrowed from the EVP labeling convention.
//
// The scheme is a labeling convention only; no claim of scientific
// validity is attached to it.
package classify

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-evp/segment"
)

// Class is the classification tier. Higher tiers are strictly more
// restrictive.
type Class int

const (
	// ClassA: clear voice characteristics, audible without processing.
	ClassA Class = iota
	// ClassB: voice-like features distinguishable from noise.
	ClassB
	// ClassC: faint anomaly barely above the noise floor.
	ClassC
)

func (c Class) String() string {
	switch c {
	case ClassA:
		return "A"
	case ClassB:
		return "B"
	case ClassC:
		return "C"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Rule gates, ordered first-match-wins.
const (
	classACentroidLow  = 300.0
	classACentroidHigh = 3000.0
	classAMinHNR       = 15.0
	classAMinClarity   = 2
	classAMinSNR       = 20.0
	classAMinDuration  = 0.5
	classAMaxDuration  = 3.0

	classBCentroidLow  = 300.0
	classBCentroidHigh = 3000.0
	classBMinHNR       = 8.0
	classBMaxHNR       = 15.0
	classBMinClarity   = 1
	classBMinSNR       = 10.0

	classCCentroidLow  = 200.0
	classCCentroidHigh = 4000.0
	classCMinSNR       = 5.0
)

// Confidence caps per class.
const (
	classAMaxConfidence = 95
	classBMaxConfidence = 70
	classCMaxConfidence = 50

	// Results below this confidence carry the pareidolia warning.
	pareidoliaConfidence = 40
)

// Classification is the immutable output record for one accepted segment.
type Classification struct {
	Class      Class
	Confidence int     // 0..95
	Timestamp  float64 // segment start, seconds from session start
	Duration   float64 // seconds
	Centroid   float64 // segment-averaged values
	HNR        float64
	SNR        float64
	Clarity    int
	F1         float64
	F2         float64
	F3         float64

	VoicePattern bool
	Note         string

	// PareidoliaWarning marks results highly susceptible to
	// pattern-matching-in-noise: all Class C results and anything below
	// the confidence floor.
	PareidoliaWarning bool

	Frame int // originating frame index
}

// Evaluate applies the ordered rule sets to a finalized segment summary.
// baselineRMSdB is the calibrated noise floor in dB; the effective SNR is
// never under-reported relative to it. ok is false when no rule matches
// and the segment yields no classification.
func Evaluate(sum segment.Summary, baselineRMSdB float64) (c Classification, ok bool) {
	snr := effectiveSNR(sum, baselineRMSdB)

	class, confidence, note, matched := applyRules(sum, snr)
	if !matched {
		return Classification{}, false
	}

	return Classification{
		Class:             class,
		Confidence:        confidence,
		Timestamp:         sum.StartTime,
		Duration:          sum.Duration,
		Centroid:          sum.AvgCentroid,
		HNR:               sum.AvgHNR,
		SNR:               snr,
		Clarity:           sum.MaxClarity,
		F1:                sum.AvgF1,
		F2:                sum.AvgF2,
		F3:                sum.AvgF3,
		VoicePattern:      sum.HasVoicePattern,
		Note:              note,
		PareidoliaWarning: class == ClassC || confidence < pareidoliaConfidence,
		Frame:             sum.StartFrame,
	}, true
}

// effectiveSNR takes the greater of the averaged frame SNR and the
// segment level above the calibrated floor.
func effectiveSNR(sum segment.Summary, baselineRMSdB float64) float64 {
	snr := sum.AvgSNR

	if sum.AvgRMS > 0 && !math.IsInf(baselineRMSdB, 0) {
		floor := 20*math.Log10(sum.AvgRMS) - baselineRMSdB
		if floor > snr {
			snr = floor
		}
	}

	return snr
}

func applyRules(sum segment.Summary, snr float64) (Class, int, string, bool) {
	centroid := sum.AvgCentroid
	hnr := sum.AvgHNR
	clarity := sum.MaxClarity

	switch {
	case centroid >= classACentroidLow && centroid <= classACentroidHigh &&
		hnr >= classAMinHNR &&
		clarity >= classAMinClarity &&
		snr >= classAMinSNR &&
		sum.Duration >= classAMinDuration && sum.Duration <= classAMaxDuration:
		conf := confidence(50+hnr+float64(clarity)*10+math.Min(snr, 30), classAMaxConfidence)

		return ClassA, conf, "clear voice characteristics: strong harmonic structure and distinct formants", true

	case centroid >= classBCentroidLow && centroid <= classBCentroidHigh &&
		hnr >= classBMinHNR && hnr <= classBMaxHNR &&
		clarity >= classBMinClarity &&
		snr >= classBMinSNR:
		conf := confidence(30+hnr+float64(clarity)*5+math.Min(snr, 20), classBMaxConfidence)

		return ClassB, conf, "voice-like spectral features distinguishable from the noise floor", true

	case centroid >= classCCentroidLow && centroid <= classCCentroidHigh &&
		snr >= classCMinSNR:
		conf := confidence(15+math.Min(snr, 15), classCMaxConfidence)

		return ClassC, conf, "faint energy anomaly above the calibrated floor; interpret with caution", true

	default:
		return 0, 0, "", false
	}
}

func confidence(v float64, limit int) int {
	c := int(math.Round(v))
	if c > limit {
		return limit
	}

	if c < 0 {
		return 0
	}

	return c
}
