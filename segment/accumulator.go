// Package segment merges temporally close anomalous frames into candidate
// evidentiary segments, tolerating short silence gaps inside an event and
// finalizing on a sufficiently long gap.
package segment

import "fmt"

// State is the accumulator state.
type State int

const (
	// Idle means no segment is open.
	Idle State = iota
	// Open means an anomalous run is being accumulated.
	Open
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sample holds the per-frame features appended to an open segment.
type Sample struct {
	Centroid float64 // Hz
	HNR      float64 // dB
	SNR      float64 // dB relative to baseline floor
	RMS      float64 // linear
	F1       float64 // Hz, 0 if absent
	F2       float64
	F3       float64
	PeakFreq float64 // Hz
	Clarity  int
}

// Summary is the reduced record of a finalized segment.
type Summary struct {
	StartTime  float64 // seconds from session start
	StartFrame int
	FrameCount int // anomalous frames accumulated (gap frames excluded)
	Duration   float64 // seconds

	AvgCentroid float64
	AvgHNR      float64
	AvgSNR      float64
	AvgRMS      float64
	AvgPeakFreq float64
	AvgF1       float64 // mean of non-zero candidates
	AvgF2       float64
	AvgF3       float64

	MaxClarity      int
	HasVoicePattern bool // any frame had clarity >= 2
}

// Accumulator is the Idle/Open state machine. One instance serves one
// session; it is not safe for concurrent use.
type Accumulator struct {
	frameRate float64
	maxGap    int
	minFrames int

	state      State
	gap        int
	startTime  float64
	startFrame int

	frames      int
	centroidSum float64
	hnrSum      float64
	snrSum      float64
	rmsSum      float64
	peakSum     float64
	fSum        [3]float64
	fCount      [3]int
	maxClarity  int
	hasVoice    bool
}

// NewAccumulator creates an accumulator. frameRate is the tick rate in
// frames per second, maxGapFrames the silence run that closes a segment,
// and minFrames the minimum accumulated frame count for a segment to
// survive finalization.
func NewAccumulator(frameRate float64, maxGapFrames, minFrames int) (*Accumulator, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("frame rate must be > 0: %f", frameRate)
	}

	if maxGapFrames < 1 {
		return nil, fmt.Errorf("max gap frames must be >= 1: %d", maxGapFrames)
	}

	if minFrames < 1 {
		return nil, fmt.Errorf("min segment frames must be >= 1: %d", minFrames)
	}

	return &Accumulator{
		frameRate: frameRate,
		maxGap:    maxGapFrames,
		minFrames: minFrames,
	}, nil
}

// State returns the current accumulator state.
func (a *Accumulator) State() State { return a.state }

// Feed advances the state machine by one frame. now is the frame's time
// in seconds from session start.
//
// closed is true on exactly the ticks where a segment finalizes. sum is
// the reduced record of that segment, or nil when it was discarded for
// falling short of the minimum duration. Two anomalous runs separated by
// fewer than maxGapFrames quiet frames merge into one segment; a run of
// maxGapFrames or more closes it.
func (a *Accumulator) Feed(anomalous bool, s Sample, frameIndex int, now float64) (sum *Summary, closed bool) {
	switch a.state {
	case Idle:
		if !anomalous {
			return nil, false
		}

		a.open(frameIndex, now)
		a.append(s)

		return nil, false

	case Open:
		if anomalous {
			a.gap = 0
			a.append(s)

			return nil, false
		}

		a.gap++
		if a.gap < a.maxGap {
			return nil, false
		}

		return a.finalize(), true

	default:
		return nil, false
	}
}

// Flush closes any open segment immediately, as at end of input.
func (a *Accumulator) Flush() (sum *Summary, closed bool) {
	if a.state != Open {
		return nil, false
	}

	return a.finalize(), true
}

// Reset returns the accumulator to Idle, discarding any open segment.
func (a *Accumulator) Reset() {
	a.state = Idle
	a.clear()
}

func (a *Accumulator) open(frameIndex int, now float64) {
	a.state = Open
	a.gap = 0
	a.startTime = now
	a.startFrame = frameIndex
}

func (a *Accumulator) append(s Sample) {
	a.frames++
	a.centroidSum += s.Centroid
	a.hnrSum += s.HNR
	a.snrSum += s.SNR
	a.rmsSum += s.RMS
	a.peakSum += s.PeakFreq

	for i, f := range [3]float64{s.F1, s.F2, s.F3} {
		if f > 0 {
			a.fSum[i] += f
			a.fCount[i]++
		}
	}

	if s.Clarity > a.maxClarity {
		a.maxClarity = s.Clarity
	}

	if s.Clarity >= 2 {
		a.hasVoice = true
	}
}

// finalize reduces the open segment and returns to Idle. Segments below
// the minimum frame count are discarded (nil Summary).
func (a *Accumulator) finalize() *Summary {
	defer func() {
		a.state = Idle
		a.clear()
	}()

	if a.frames < a.minFrames {
		return nil
	}

	n := float64(a.frames)

	sum := &Summary{
		StartTime:       a.startTime,
		StartFrame:      a.startFrame,
		FrameCount:      a.frames,
		Duration:        n / a.frameRate,
		AvgCentroid:     a.centroidSum / n,
		AvgHNR:          a.hnrSum / n,
		AvgSNR:          a.snrSum / n,
		AvgRMS:          a.rmsSum / n,
		AvgPeakFreq:     a.peakSum / n,
		MaxClarity:      a.maxClarity,
		HasVoicePattern: a.hasVoice,
	}

	avgs := [3]*float64{&sum.AvgF1, &sum.AvgF2, &sum.AvgF3}
	for i, count := range a.fCount {
		if count > 0 {
			*avgs[i] = a.fSum[i] / float64(count)
		}
	}

	return sum
}

func (a *Accumulator) clear() {
	a.gap = 0
	a.startTime = 0
	a.startFrame = 0
	a.frames = 0
	a.centroidSum = 0
	a.hnrSum = 0
	a.snrSum = 0
	a.rmsSum = 0
	a.peakSum = 0
	a.fSum = [3]float64{}
	a.fCount = [3]int{}
	a.maxClarity = 0
	a.hasVoice = false
}
