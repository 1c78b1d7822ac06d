package pitch

import (
	"math"

	"github.com/cwbudde/algo-vocal/dsp/core"
)

// Shift factor bounds. A factor of 2 is one octave up, 0.5 one octave down.
const (
	MinFactor = 0.5
	MaxFactor = 2.0
)

// ClampFactor limits f to [MinFactor, MaxFactor]. NaN maps to 1.
func ClampFactor(f float64) float64 {
	if math.IsNaN(f) {
		return 1
	}
	return core.Clamp(f, MinFactor, MaxFactor)
}

// FactorFromSemitones converts a shift in semitones to a clamped factor.
func FactorFromSemitones(semitones float64) float64 {
	return ClampFactor(math.Exp2(semitones / 12))
}

// FactorToTarget returns the clamped factor that moves currentHz to
// targetHz, or 1 if either frequency is not positive.
func FactorToTarget(currentHz, targetHz float64) float64 {
	if !core.IsFinitePositive(currentHz) || !core.IsFinitePositive(targetHz) {
		return 1
	}
	return ClampFactor(targetHz / currentHz)
}
