// Package time provides block-level time-domain statistics used for level
// metering.
package time

import "math"

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// Level holds the per-block level figures reported to a meter.
type Level struct {
	RMS  float64
	Peak float64 // peak absolute amplitude
}

// Measure computes the Level of a block in one pass. An empty block yields
// zero levels.
func Measure(signal []float64) Level {
	if len(signal) == 0 {
		return Level{}
	}

	var sumSq, peak float64
	for _, x := range signal {
		sumSq += x * x
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return Level{
		RMS:  math.Sqrt(sumSq / float64(len(signal))),
		Peak: peak,
	}
}
