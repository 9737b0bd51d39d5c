// Package session ties the analysis stages into a streaming pipeline:
// per-frame feature extraction, noise-floor calibration, anomaly
// detection, segment accumulation and classification.
//
// One Pipeline instance serves exactly one investigation session. The
// model is single-threaded and frame-driven: an external capture loop
// calls ProcessFrame once per tick and no internal state is shared, so
// no locking is required. Independent sessions use independent
// instances.
package session

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-evp/baseline"
	"github.com/cwbudde/algo-evp/classify"
	"github.com/cwbudde/algo-evp/detect"
	"github.com/cwbudde/algo-evp/feature"
	"github.com/cwbudde/algo-evp/segment"
)

// Stats holds session tally counters. All values are running totals
// since construction or the last Reset.
type Stats struct {
	FramesProcessed     int
	Calibrated          bool
	AnomalousFrames     int
	AnomalyEvents       int // rising edges: transitions into the anomalous state
	PeakAnomalyStrength int // most deviant bins seen in a single frame
	SegmentsFinalized   int
	SegmentsDiscarded   int // closed below the minimum duration
	Suppressed          int // qualifying classifications dropped by cooldown
	Classifications     int
	CountA              int
	CountB              int
	CountC              int
}

// Pipeline is the per-session analysis engine.
type Pipeline struct {
	cfg      Config
	binCount int

	extractor  *feature.Extractor
	calibrator *baseline.Calibrator
	detector   *detect.Detector
	acc        *segment.Accumulator

	frameIndex    int
	cooldown      int
	prevAnomalous bool

	history []classify.Classification
	stats   Stats
}

// New creates a pipeline from the given options.
func New(opts ...Option) (*Pipeline, error) {
	cfg := ApplyOptions(opts...)

	extractor, err := feature.NewExtractor(cfg.SampleRate, cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	binCount := extractor.BinCount()

	calibrator, err := baseline.NewCalibrator(cfg.CalibrationFrames, binCount)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	detector, err := detect.NewDetector(extractor.BinResolution(), binCount)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	acc, err := segment.NewAccumulator(cfg.FrameRate, cfg.MaxGapFrames, cfg.MinSegmentFrames)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Pipeline{
		cfg:        cfg,
		binCount:   binCount,
		extractor:  extractor,
		calibrator: calibrator,
		detector:   detector,
		acc:        acc,
	}, nil
}

// Config returns the session configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Calibrated reports whether the noise-floor baseline has locked.
func (p *Pipeline) Calibrated() bool { return p.calibrator.Established() }

// Baseline returns the locked noise-floor reference, or nil while the
// session is still calibrating.
func (p *Pipeline) Baseline() *baseline.Baseline { return p.calibrator.Baseline() }

// ProcessFrame advances the pipeline by one capture tick. samples holds
// the frame's time-domain buffer (FFTSize values in [-1, 1]); magsDB the
// magnitude spectrum (FFTSize/2 bins in dB).
//
// The returned Classification is non-nil only on ticks where a segment
// finalizes, matches a rule set and falls outside the cooldown window.
func (p *Pipeline) ProcessFrame(samples, magsDB []float64) (*classify.Classification, error) {
	if len(samples) != p.cfg.FFTSize {
		return nil, fmt.Errorf("frame samples = %d, want %d", len(samples), p.cfg.FFTSize)
	}

	if len(magsDB) != p.binCount {
		return nil, fmt.Errorf("frame magnitude bins = %d, want %d", len(magsDB), p.binCount)
	}

	now := float64(p.frameIndex) / p.cfg.FrameRate
	frameIndex := p.frameIndex
	p.frameIndex++
	p.stats.FramesProcessed++

	if p.cooldown > 0 {
		p.cooldown--
	}

	f := p.extractor.Extract(samples, magsDB)
	linear := p.extractor.Linear()

	if !p.calibrator.Established() {
		p.calibrator.Add(f.RMS, linear)
		p.stats.Calibrated = p.calibrator.Established()
		p.prevAnomalous = false

		return nil, nil
	}

	b := p.calibrator.Baseline()

	anomalous, strength := p.detector.Evaluate(b, linear)

	if anomalous {
		p.stats.AnomalousFrames++

		if !p.prevAnomalous {
			p.stats.AnomalyEvents++
		}

		if strength > p.stats.PeakAnomalyStrength {
			p.stats.PeakAnomalyStrength = strength
		}
	}

	p.prevAnomalous = anomalous

	sum, closed := p.acc.Feed(anomalous, p.sample(f, b), frameIndex, now)

	return p.handleClosure(sum, closed, b), nil
}

// Flush closes any open segment, as at end of input, and classifies it
// under the same cooldown rules as a gap-driven closure.
func (p *Pipeline) Flush() *classify.Classification {
	if !p.calibrator.Established() {
		return nil
	}

	sum, closed := p.acc.Flush()

	return p.handleClosure(sum, closed, p.calibrator.Baseline())
}

func (p *Pipeline) sample(f feature.Features, b *baseline.Baseline) segment.Sample {
	snr := 0.0
	if f.RMS > 0 && !math.IsInf(b.RMS_dB, 0) {
		snr = f.RMS_dB - b.RMS_dB
	}

	return segment.Sample{
		Centroid: f.Centroid,
		HNR:      f.HNR,
		SNR:      snr,
		RMS:      f.RMS,
		F1:       f.F1,
		F2:       f.F2,
		F3:       f.F3,
		PeakFreq: f.PeakFreq,
		Clarity:  f.Clarity,
	}
}

// handleClosure routes a finalized segment through the classifier and
// the cooldown gate. Segments still form and finalize during cooldown;
// only surfacing the result is suppressed.
func (p *Pipeline) handleClosure(sum *segment.Summary, closed bool, b *baseline.Baseline) *classify.Classification {
	if !closed {
		return nil
	}

	if sum == nil {
		p.stats.SegmentsDiscarded++

		return nil
	}

	p.stats.SegmentsFinalized++

	cls, ok := classify.Evaluate(*sum, b.RMS_dB)
	if !ok {
		return nil
	}

	if p.cooldown > 0 {
		p.stats.Suppressed++

		return nil
	}

	p.cooldown = p.cfg.CooldownFrames
	p.record(cls)

	return &cls
}

func (p *Pipeline) record(cls classify.Classification) {
	p.stats.Classifications++

	switch cls.Class {
	case classify.ClassA:
		p.stats.CountA++
	case classify.ClassB:
		p.stats.CountB++
	case classify.ClassC:
		p.stats.CountC++
	}

	if len(p.history) >= p.cfg.HistoryCap {
		p.history = append(p.history[1:], cls)

		return
	}

	p.history = append(p.history, cls)
}

// History returns a copy of the retained classifications, oldest first.
func (p *Pipeline) History() []classify.Classification {
	out := make([]classify.Classification, len(p.history))
	copy(out, p.history)

	return out
}

// Stats returns a copy of the session tallies.
func (p *Pipeline) Stats() Stats { return p.stats }

// Reset clears all session state, leaving the pipeline equivalent to a
// freshly constructed instance with the same configuration.
func (p *Pipeline) Reset() {
	p.calibrator.Reset()
	p.acc.Reset()
	p.frameIndex = 0
	p.cooldown = 0
	p.prevAnomalous = false
	p.history = nil
	p.stats = Stats{}
}
