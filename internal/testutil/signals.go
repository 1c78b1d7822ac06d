package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// VibratoSine generates a sine whose instantaneous frequency oscillates
// around freqHz at rateHz with a peak excursion of depthCents.
func VibratoSine(freqHz, sampleRate, amplitude, rateHz, depthCents float64, length int) []float64 {
	out := make([]float64, length)
	phase := 0.0
	for i := range out {
		t := float64(i) / sampleRate
		cents := depthCents * math.Sin(2*math.Pi*rateHz*t)
		f := freqHz * math.Pow(2, cents/1200)
		out[i] = amplitude * math.Sin(phase)
		phase += 2 * math.Pi * f / sampleRate
		if phase > 2*math.Pi {
			phase -= 2 * math.Pi
		}
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Blocks splits signal into consecutive blocks of blockSize samples. A
// trailing partial block is dropped. The blocks alias signal.
func Blocks(signal []float64, blockSize int) [][]float64 {
	if blockSize <= 0 {
		return nil
	}
	out := make([][]float64, 0, len(signal)/blockSize)
	for i := 0; i+blockSize <= len(signal); i += blockSize {
		out = append(out, signal[i:i+blockSize:i+blockSize])
	}
	return out
}
