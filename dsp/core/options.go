package core

import (
	"fmt"
	"time"
)

// ProcessorConfig defines common DSP processing settings.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// Validate reports whether the config can drive a block processor.
func (c ProcessorConfig) Validate() error {
	if !IsFinitePositive(c.SampleRate) {
		return fmt.Errorf("sample rate must be positive and finite: %f", c.SampleRate)
	}
	if c.BlockSize < 2 {
		return fmt.Errorf("block size must be >= 2: %d", c.BlockSize)
	}
	return nil
}

// BlockDuration returns the wall-clock length of one block.
func (c ProcessorConfig) BlockDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.BlockSize) * float64(time.Second) / c.SampleRate)
}
