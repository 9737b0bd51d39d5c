package classify

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-evp/segment"
)

// quietFloor stands in for a session with no usable RMS baseline, so the
// averaged frame SNR is taken as-is.
var quietFloor = math.Inf(-1)

func makeSummary() segment.Summary {
	return segment.Summary{
		StartTime:       12.5,
		StartFrame:      375,
		FrameCount:      30,
		Duration:        1.0,
		AvgCentroid:     1500,
		AvgHNR:          18,
		AvgSNR:          25,
		MaxClarity:      3,
		HasVoicePattern: true,
	}
}

func TestEvaluateClassA(t *testing.T) {
	c, ok := Evaluate(makeSummary(), quietFloor)
	if !ok {
		t.Fatal("expected a classification")
	}

	if c.Class != ClassA {
		t.Fatalf("Class = %v, want A", c.Class)
	}

	// min(95, 50 + 18 + 3*10 + min(25, 30)) = 95
	if c.Confidence != 95 {
		t.Fatalf("Confidence = %d, want 95", c.Confidence)
	}

	if c.PareidoliaWarning {
		t.Fatal("PareidoliaWarning = true for a high-confidence Class A")
	}

	if c.Timestamp != 12.5 || c.Frame != 375 {
		t.Fatalf("Timestamp/Frame = %v/%d, want 12.5/375", c.Timestamp, c.Frame)
	}
}

func TestEvaluateFallsToClassB(t *testing.T) {
	sum := makeSummary()
	sum.AvgHNR = 10 // below the Class A harmonicity gate

	c, ok := Evaluate(sum, quietFloor)
	if !ok {
		t.Fatal("expected a classification")
	}

	if c.Class != ClassB {
		t.Fatalf("Class = %v, want B", c.Class)
	}

	// min(70, 30 + 10 + 3*5 + min(25, 20)) = 70
	if c.Confidence != 70 {
		t.Fatalf("Confidence = %d, want 70", c.Confidence)
	}
}

func TestEvaluateClassCOnly(t *testing.T) {
	sum := makeSummary()
	sum.AvgCentroid = 3500 // outside the A/B centroid ranges
	sum.AvgSNR = 6

	c, ok := Evaluate(sum, quietFloor)
	if !ok {
		t.Fatal("expected a classification")
	}

	if c.Class != ClassC {
		t.Fatalf("Class = %v, want C", c.Class)
	}

	// min(50, 15 + min(6, 15)) = 21
	if c.Confidence != 21 {
		t.Fatalf("Confidence = %d, want 21", c.Confidence)
	}

	if !c.PareidoliaWarning {
		t.Fatal("PareidoliaWarning = false, want true for Class C")
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	sum := makeSummary()
	sum.AvgSNR = 3
	sum.AvgCentroid = 100 // below every centroid gate

	if _, ok := Evaluate(sum, quietFloor); ok {
		t.Fatal("expected no classification")
	}
}

func TestEvaluateWeakSNRNoMatch(t *testing.T) {
	sum := makeSummary()
	sum.AvgSNR = 3
	sum.AvgHNR = 0
	sum.MaxClarity = 0

	if _, ok := Evaluate(sum, quietFloor); ok {
		t.Fatal("SNR below every gate must yield no classification")
	}
}

func TestEffectiveSNRNeverUnderReports(t *testing.T) {
	sum := makeSummary()
	sum.AvgSNR = 5    // frame-reported SNR alone fails the Class A gate
	sum.AvgRMS = 0.1  // -20 dB
	baselineRMSdB := -50.0

	c, ok := Evaluate(sum, baselineRMSdB)
	if !ok {
		t.Fatal("expected a classification")
	}

	if c.Class != ClassA {
		t.Fatalf("Class = %v, want A via the floor-relative SNR", c.Class)
	}

	if math.Abs(c.SNR-30) > 1e-12 {
		t.Fatalf("SNR = %v, want 30 (RMS dB above floor)", c.SNR)
	}
}

func TestHNRBoundaryPrefersClassA(t *testing.T) {
	sum := makeSummary()
	sum.AvgHNR = 15 // inclusive on both the A and B gates; A wins first

	c, ok := Evaluate(sum, quietFloor)
	if !ok || c.Class != ClassA {
		t.Fatalf("Class = %v (ok=%v), want A", c.Class, ok)
	}
}

func TestDurationGateOnlyBindsClassA(t *testing.T) {
	sum := makeSummary()
	sum.Duration = 4.0 // too long for A
	sum.AvgHNR = 12

	c, ok := Evaluate(sum, quietFloor)
	if !ok || c.Class != ClassB {
		t.Fatalf("Class = %v (ok=%v), want B (duration unconstrained)", c.Class, ok)
	}
}

func TestClassString(t *testing.T) {
	if ClassA.String() != "A" || ClassB.String() != "B" || ClassC.String() != "C" {
		t.Fatalf("Class strings = %q/%q/%q", ClassA, ClassB, ClassC)
	}
}
