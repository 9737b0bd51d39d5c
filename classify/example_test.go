package classify_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-evp/classify"
	"github.com/cwbudde/algo-evp/segment"
)

func ExampleEvaluate() {
	sum := segment.Summary{
		Duration:        1.0,
		AvgCentroid:     1500,
		AvgHNR:          18,
		AvgSNR:          25,
		MaxClarity:      3,
		HasVoicePattern: true,
	}

	c, ok := classify.Evaluate(sum, math.Inf(-1))
	fmt.Printf("ok=%v class=%s confidence=%d\n", ok, c.Class, c.Confidence)

	// Output:
	// ok=true class=A confidence=95
}
