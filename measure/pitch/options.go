package pitch

import (
	"fmt"
	"math"
)

const (
	defaultSampleRate   = 44100.0
	defaultBlockSize    = 1024
	defaultMinFrequency = 80.0
	defaultMaxFrequency = 1100.0
	defaultThreshold    = 0.6
	defaultSilenceFloor = 0.005
	defaultContinuity   = 0.85
	defaultHighpassHz   = 50.0

	// keyMaximumRatio selects the first key maximum within this fraction of
	// the best one.
	keyMaximumRatio = 0.9

	// continuityHold is the number of consecutive unvoiced blocks after
	// which the previous period no longer biases peak selection.
	continuityHold = 4

	maxKeyMaxima = 64
)

type config struct {
	sampleRate   float64
	blockSize    int
	minFrequency float64
	maxFrequency float64
	threshold    float64
	silenceFloor float64
	continuity   float64
	reference    float64
	highpassHz   float64
}

func defaultConfig() config {
	return config{
		sampleRate:   defaultSampleRate,
		blockSize:    defaultBlockSize,
		minFrequency: defaultMinFrequency,
		maxFrequency: defaultMaxFrequency,
		threshold:    defaultThreshold,
		silenceFloor: defaultSilenceFloor,
		continuity:   defaultContinuity,
		reference:    DefaultReference,
		highpassHz:   defaultHighpassHz,
	}
}

// Option configures a [Detector].
type Option func(*config) error

// WithSampleRate sets the input sample rate in Hz (default 44100).
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) error {
		if !isFinitePositive(sampleRate) {
			return fmt.Errorf("pitch: sample rate must be positive and finite: %f", sampleRate)
		}
		cfg.sampleRate = sampleRate
		return nil
	}
}

// WithBlockSize sets the analysis block length in samples (default 1024).
func WithBlockSize(n int) Option {
	return func(cfg *config) error {
		if n < 64 {
			return fmt.Errorf("pitch: block size must be >= 64: %d", n)
		}
		cfg.blockSize = n
		return nil
	}
}

// WithRange sets the detectable fundamental range in Hz (default 80..1100).
func WithRange(minHz, maxHz float64) Option {
	return func(cfg *config) error {
		if !isFinitePositive(minHz) || !isFinitePositive(maxHz) || minHz >= maxHz {
			return fmt.Errorf("pitch: invalid range [%f, %f]", minHz, maxHz)
		}
		cfg.minFrequency = minHz
		cfg.maxFrequency = maxHz
		return nil
	}
}

// WithThreshold sets the minimum NSDF clarity in (0, 1] for a voiced
// result (default 0.6).
func WithThreshold(clarity float64) Option {
	return func(cfg *config) error {
		if !(clarity > 0 && clarity <= 1) {
			return fmt.Errorf("pitch: threshold must be in (0, 1]: %f", clarity)
		}
		cfg.threshold = clarity
		return nil
	}
}

// WithSilenceFloor sets the block RMS below which the block is treated as
// silence (default 0.005, about -46 dBFS).
func WithSilenceFloor(rms float64) Option {
	return func(cfg *config) error {
		if rms < 0 || math.IsNaN(rms) || math.IsInf(rms, 0) {
			return fmt.Errorf("pitch: silence floor must be >= 0 and finite: %f", rms)
		}
		cfg.silenceFloor = rms
		return nil
	}
}

// WithContinuity sets the fraction of the strongest peak a candidate must
// reach to be preferred for lying closest to the previous period
// (default 0.85). 1 disables the bias.
func WithContinuity(ratio float64) Option {
	return func(cfg *config) error {
		if !(ratio > 0 && ratio <= 1) {
			return fmt.Errorf("pitch: continuity ratio must be in (0, 1]: %f", ratio)
		}
		cfg.continuity = ratio
		return nil
	}
}

// WithReference sets the A4 reference in Hz (default 440).
func WithReference(a4 float64) Option {
	return func(cfg *config) error {
		if !isFinitePositive(a4) {
			return fmt.Errorf("pitch: reference must be positive and finite: %f", a4)
		}
		cfg.reference = a4
		return nil
	}
}

// WithHighpass sets the rumble filter cutoff in Hz (default 50). 0 disables
// the filter.
func WithHighpass(hz float64) Option {
	return func(cfg *config) error {
		if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("pitch: highpass cutoff must be >= 0 and finite: %f", hz)
		}
		cfg.highpassHz = hz
		return nil
	}
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
