package vocal

import (
	"fmt"
	"math"
	"time"
)

const (
	defaultFramePeriod     = 23219955 * time.Nanosecond // 1024 samples at 44.1 kHz
	defaultWindow          = 3 * time.Second
	defaultTolerance       = 25.0
	defaultSustain         = 500 * time.Millisecond
	defaultVibratoLow      = 4.0
	defaultVibratoHigh     = 8.0
	defaultVibratoMinDepth = 8.0
	defaultVolumeTau       = time.Second

	// vibratoFrames bounds the series used for vibrato analysis.
	vibratoFrames = 64
	// vibratoMinCorrelation is the normalized autocorrelation a vibrato
	// period must reach.
	vibratoMinCorrelation = 0.5
)

type config struct {
	framePeriod     time.Duration
	window          time.Duration
	tolerance       float64
	sustain         time.Duration
	vibratoLow      float64
	vibratoHigh     float64
	vibratoMinDepth float64
	weightStable    float64
	weightInTune    float64
	volumeTau       time.Duration
}

func defaultConfig() config {
	return config{
		framePeriod:     defaultFramePeriod,
		window:          defaultWindow,
		tolerance:       defaultTolerance,
		sustain:         defaultSustain,
		vibratoLow:      defaultVibratoLow,
		vibratoHigh:     defaultVibratoHigh,
		vibratoMinDepth: defaultVibratoMinDepth,
		weightStable:    0.5,
		weightInTune:    0.5,
		volumeTau:       defaultVolumeTau,
	}
}

// Option configures an [Aggregator].
type Option func(*config) error

// WithFramePeriod sets the duration of one Update tick, normally the block
// duration (default 1024 samples at 44.1 kHz).
func WithFramePeriod(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("vocal: frame period must be > 0: %v", d)
		}
		cfg.framePeriod = d
		return nil
	}
}

// WithWindow sets how much voiced audio the rolling window holds
// (default 3s).
func WithWindow(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("vocal: window must be > 0: %v", d)
		}
		cfg.window = d
		return nil
	}
}

// WithTolerance sets the in-tune band in cents either side of the target
// (default 25).
func WithTolerance(cents float64) Option {
	return func(cfg *config) error {
		if !(cents > 0 && cents <= 100) {
			return fmt.Errorf("vocal: tolerance must be in (0, 100] cents: %f", cents)
		}
		cfg.tolerance = cents
		return nil
	}
}

// WithSustain sets how long a note must be held in tune to count as hit
// (default 500ms).
func WithSustain(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("vocal: sustain must be > 0: %v", d)
		}
		cfg.sustain = d
		return nil
	}
}

// WithVibratoBand sets the accepted vibrato rate range in Hz (default 4..8).
func WithVibratoBand(lowHz, highHz float64) Option {
	return func(cfg *config) error {
		if !(lowHz > 0 && highHz > lowHz) || math.IsInf(highHz, 0) {
			return fmt.Errorf("vocal: invalid vibrato band [%f, %f]", lowHz, highHz)
		}
		cfg.vibratoLow = lowHz
		cfg.vibratoHigh = highHz
		return nil
	}
}

// WithVibratoMinDepth sets the minimum depth in cents for vibrato to be
// reported (default 8).
func WithVibratoMinDepth(cents float64) Option {
	return func(cfg *config) error {
		if cents < 0 || math.IsNaN(cents) || math.IsInf(cents, 0) {
			return fmt.Errorf("vocal: vibrato depth must be >= 0 and finite: %f", cents)
		}
		cfg.vibratoMinDepth = cents
		return nil
	}
}

// WithAccuracyWeights sets the blend of pitch consistency and in-tune time
// in the accuracy score (default 0.5/0.5). The weights are normalized.
func WithAccuracyWeights(consistency, inTune float64) Option {
	return func(cfg *config) error {
		if consistency < 0 || inTune < 0 || consistency+inTune <= 0 ||
			math.IsInf(consistency, 0) || math.IsInf(inTune, 0) {
			return fmt.Errorf("vocal: invalid accuracy weights %f/%f", consistency, inTune)
		}
		sum := consistency + inTune
		cfg.weightStable = consistency / sum
		cfg.weightInTune = inTune / sum
		return nil
	}
}

// WithVolumeTimeConstant sets the averaging time constant of the volume
// meter (default 1s).
func WithVolumeTimeConstant(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("vocal: volume time constant must be > 0: %v", d)
		}
		cfg.volumeTau = d
		return nil
	}
}
