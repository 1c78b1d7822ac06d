package pitch

import (
	"fmt"

	"github.com/cwbudde/algo-vocal/dsp/core"
)

// Mode selects how a [Shifter] reads its input.
type Mode int

const (
	// ModeResample reads the current block at factor times the output rate.
	ModeResample Mode = iota
	// ModeOverlapAdd crossfades four delay-line read heads.
	ModeOverlapAdd
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeResample:
		return "resample"
	case ModeOverlapAdd:
		return "overlap-add"
	default:
		return "unknown"
	}
}

const minBlockSize = 16

type config struct {
	core.ProcessorConfig
	factor float64
	mode   Mode
}

func defaultConfig() config {
	return config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		factor:          1,
		mode:            ModeResample,
	}
}

// Option configures a [Shifter].
type Option func(*config) error

// WithBlockSize sets the processing block length (default 1024). The
// working buffer is four blocks long.
func WithBlockSize(n int) Option {
	return func(cfg *config) error {
		if n < minBlockSize {
			return fmt.Errorf("pitch: block size must be >= %d: %d", minBlockSize, n)
		}
		cfg.BlockSize = n
		return nil
	}
}

// WithSampleRate sets the sample rate in Hz (default 44100).
func WithSampleRate(sr float64) Option {
	return func(cfg *config) error {
		if !core.IsFinitePositive(sr) {
			return fmt.Errorf("pitch: sample rate must be positive and finite: %f", sr)
		}
		cfg.SampleRate = sr
		return nil
	}
}

// WithFactor sets the initial shift factor, clamped to [MinFactor, MaxFactor].
func WithFactor(f float64) Option {
	return func(cfg *config) error {
		cfg.factor = ClampFactor(f)
		return nil
	}
}

// WithMode selects the read strategy (default ModeResample).
func WithMode(m Mode) Option {
	return func(cfg *config) error {
		if m != ModeResample && m != ModeOverlapAdd {
			return fmt.Errorf("pitch: unknown mode %d", m)
		}
		cfg.mode = m
		return nil
	}
}
