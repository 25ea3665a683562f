// Package render turns fold results into plots, text summaries and
// machine-readable reports.
package render

import "math"

const (
	axisPadRatio = 0.1
	axisMinPad   = 0.1
	axisMaxTicks = 10
)

// axisGaps is the tick-gap ladder, smallest first.
var axisGaps = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000}

// AxisParams returns the y-axis start, end and tick gap for data in [lo, hi].
// The range is padded by 10% (at least 0.1) on both sides and the gap is the
// first ladder entry that yields at most ten ticks. Bounds snap to the gap
// with round-half-to-even.
func AxisParams(lo, hi float64) (start, end, gap float64) {
	pad := math.Max(axisPadRatio*(hi-lo), axisMinPad)
	adjLo, adjHi := lo-pad, hi+pad
	span := adjHi - adjLo

	gap = axisGaps[len(axisGaps)-1]

	for _, g := range axisGaps {
		if span/g <= axisMaxTicks {
			gap = g

			break
		}
	}

	start = gap * math.RoundToEven(adjLo/gap)
	end = gap * math.RoundToEven(adjHi/gap+0.5)

	return start, end, gap
}
