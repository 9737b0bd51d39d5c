// Package detect flags frames whose voice-band spectrum deviates
// statistically from the calibrated baseline.
package detect

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-evp/baseline"
	"github.com/cwbudde/algo-evp/feature"
)

const (
	// A bin deviates when its linear magnitude exceeds mean + ZFactor*std.
	ZFactor = 2.0

	// MinDeviantBins is the number of deviating voice-band bins required
	// to flag a frame as anomalous.
	MinDeviantBins = 5

	// Epsilon guards the z-score comparison against near-zero standard
	// deviations from pathologically silent calibration.
	Epsilon = 1e-10
)

// Detector evaluates frames against a locked baseline inside the voice
// sub-band.
type Detector struct {
	lowBin  int
	highBin int
}

// NewDetector creates a detector for the given analyser resolution. The
// evaluated band matches the feature extractor's voice band.
func NewDetector(binHz float64, binCount int) (*Detector, error) {
	if binHz <= 0 {
		return nil, fmt.Errorf("bin resolution must be > 0: %f", binHz)
	}

	if binCount <= 0 {
		return nil, fmt.Errorf("bin count must be > 0: %d", binCount)
	}

	low := int(math.Ceil(feature.VoiceBandLowHz / binHz))
	if low < 1 {
		low = 1
	}

	high := int(math.Floor(feature.VoiceBandHighHz / binHz))
	if high > binCount-1 {
		high = binCount - 1
	}

	return &Detector{lowBin: low, highBin: high}, nil
}

// Evaluate counts voice-band bins exceeding the baseline threshold.
// A nil or unestablished baseline yields (false, 0) unconditionally.
// strength is the deviant bin count regardless of the verdict, so
// callers can log rising edges or inspect near-misses.
func (d *Detector) Evaluate(b *baseline.Baseline, linear []float64) (anomalous bool, strength int) {
	if b == nil {
		return false, 0
	}

	high := d.highBin
	if high >= len(linear) || high >= len(b.Mean) {
		high = min(len(linear), len(b.Mean)) - 1
	}

	for i := d.lowBin; i <= high; i++ {
		std := b.Std[i]
		if std <= Epsilon {
			continue
		}

		if linear[i] > b.Mean[i]+ZFactor*std {
			strength++
		}
	}

	return strength >= MinDeviantBins, strength
}
