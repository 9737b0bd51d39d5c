package segment_test

import (
	"fmt"

	"github.com/cwbudde/algo-evp/segment"
)

func ExampleAccumulator_Feed() {
	acc, _ := segment.NewAccumulator(30, 6, 3)

	// Four anomalous frames, then enough quiet frames to close the
	// segment.
	frame := 0
	for ; frame < 4; frame++ {
		acc.Feed(true, segment.Sample{Centroid: 1200}, frame, float64(frame)/30)
	}

	for ; frame < 12; frame++ {
		sum, closed := acc.Feed(false, segment.Sample{}, frame, float64(frame)/30)
		if closed {
			fmt.Printf("frames=%d duration=%.3fs centroid=%.0f\n",
				sum.FrameCount, sum.Duration, sum.AvgCentroid)
		}
	}

	// Output:
	// frames=4 duration=0.133s centroid=1200
}
