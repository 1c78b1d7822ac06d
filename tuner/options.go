package tuner

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-vocal/dsp/core"
	pitchshift "github.com/cwbudde/algo-vocal/dsp/effects/pitch"
	"github.com/cwbudde/algo-vocal/measure/formant"
	"github.com/cwbudde/algo-vocal/measure/pitch"
	"github.com/cwbudde/algo-vocal/stats/vocal"
)

type config struct {
	core.ProcessorConfig
	logger   *slog.Logger
	shifter  *pitchshift.Shifter
	formants bool
	retune   bool
	detector []pitch.Option
	metrics  []vocal.Option
	formant  []formant.Option
}

func defaultConfig() config {
	return config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		logger:          slog.Default(),
	}
}

// Option configures a [Controller].
type Option func(*config) error

// WithSampleRate sets the capture sample rate (default 44100).
func WithSampleRate(sr float64) Option {
	return func(cfg *config) error {
		if !core.IsFinitePositive(sr) {
			return fmt.Errorf("tuner: sample rate must be positive and finite: %f", sr)
		}
		cfg.SampleRate = sr
		return nil
	}
}

// WithBlockSize sets the processing block length (default 1024).
func WithBlockSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("tuner: block size must be > 0: %d", n)
		}
		cfg.BlockSize = n
		return nil
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return fmt.Errorf("tuner: logger must not be nil")
		}
		cfg.logger = l
		return nil
	}
}

// WithShifter attaches the backing-track shifter that SetShiftFactor
// controls.
func WithShifter(s *pitchshift.Shifter) Option {
	return func(cfg *config) error {
		cfg.shifter = s
		return nil
	}
}

// WithFormants enables per-block formant estimation.
func WithFormants(enabled bool) Option {
	return func(cfg *config) error {
		cfg.formants = enabled
		return nil
	}
}

// WithFormantOptions passes extra options to the formant estimator. Sample
// rate and size are always taken from the controller.
func WithFormantOptions(opts ...formant.Option) Option {
	return func(cfg *config) error {
		cfg.formant = append(cfg.formant, opts...)
		return nil
	}
}

// WithRetune retunes the backing track toward the target note: while a
// target is set, every voiced block sets the shift factor to the ratio that
// carries the sung frequency onto the target, clamped to the shifter range.
// It needs a shifter.
func WithRetune(enabled bool) Option {
	return func(cfg *config) error {
		cfg.retune = enabled
		return nil
	}
}

// WithDetectorOptions passes extra options to the pitch detector. Sample
// rate and block size are always taken from the controller.
func WithDetectorOptions(opts ...pitch.Option) Option {
	return func(cfg *config) error {
		cfg.detector = append(cfg.detector, opts...)
		return nil
	}
}

// WithAggregatorOptions passes extra options to the metrics aggregator.
// The frame period is always the block duration.
func WithAggregatorOptions(opts ...vocal.Option) Option {
	return func(cfg *config) error {
		cfg.metrics = append(cfg.metrics, opts...)
		return nil
	}
}
