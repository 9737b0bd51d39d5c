// Package baseline establishes the per-session noise-floor reference:
// an overall RMS level and per-bin mean/standard-deviation tables
// accumulated over a fixed calibration window and locked thereafter.
package baseline

import (
	"fmt"
	"math"
)

// Baseline is the locked statistical reference. Mean and Std hold
// linear-scale magnitudes, one entry per spectrum bin. Immutable once
// returned by the Calibrator.
//
//nolint:revive
type Baseline struct {
	RMS    float64 // linear
	RMS_dB float64
	Mean   []float64
	Std    []float64
}

// Calibrator accumulates frames until the calibration target is reached,
// then exposes the locked Baseline. Further Add calls are no-ops.
type Calibrator struct {
	target   int
	binCount int

	frames int
	rmsSum float64
	sum    []float64
	sumSq  []float64

	locked *Baseline
}

// NewCalibrator creates a calibrator for the given calibration frame
// target and spectrum bin count. Both tables are sized once; no resizing
// happens during the session.
func NewCalibrator(target, binCount int) (*Calibrator, error) {
	if target <= 0 {
		return nil, fmt.Errorf("calibration target must be > 0: %d", target)
	}

	if binCount <= 0 {
		return nil, fmt.Errorf("bin count must be > 0: %d", binCount)
	}

	return &Calibrator{
		target:   target,
		binCount: binCount,
		sum:      make([]float64, binCount),
		sumSq:    make([]float64, binCount),
	}, nil
}

// Add accumulates one frame's RMS and linear-scale magnitudes. Once the
// target frame count is reached the baseline locks; later calls do
// nothing. Returns true while the calibrator is still collecting.
func (c *Calibrator) Add(rms float64, linear []float64) bool {
	if c.locked != nil {
		return false
	}

	c.rmsSum += rms

	n := min(len(linear), c.binCount)
	for i := 0; i < n; i++ {
		v := linear[i]
		c.sum[i] += v
		c.sumSq[i] += v * v
	}

	c.frames++
	if c.frames >= c.target {
		c.lock()
	}

	return c.locked == nil
}

func (c *Calibrator) lock() {
	n := float64(c.frames)

	b := &Baseline{
		RMS:  c.rmsSum / n,
		Mean: make([]float64, c.binCount),
		Std:  make([]float64, c.binCount),
	}

	b.RMS_dB = ampTodB(b.RMS)

	for i := range b.Mean {
		mean := c.sum[i] / n
		b.Mean[i] = mean
		// Guard against tiny negative variance from rounding.
		b.Std[i] = math.Sqrt(math.Max(0, c.sumSq[i]/n-mean*mean))
	}

	c.locked = b
}

// Established reports whether the baseline has locked.
func (c *Calibrator) Established() bool { return c.locked != nil }

// Baseline returns the locked reference, or nil while still calibrating.
func (c *Calibrator) Baseline() *Baseline { return c.locked }

// Remaining returns the number of frames still needed to lock.
func (c *Calibrator) Remaining() int {
	if c.locked != nil {
		return 0
	}

	return c.target - c.frames
}

// Reset discards all accumulated state so a new session can calibrate
// from scratch.
func (c *Calibrator) Reset() {
	c.frames = 0
	c.rmsSum = 0
	c.locked = nil

	for i := range c.sum {
		c.sum[i] = 0
		c.sumSq[i] = 0
	}
}

func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}
