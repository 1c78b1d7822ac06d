package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vocal/dsp/filter/biquad"
)

func TestHighpassResponse(t *testing.T) {
	const sr = 44100.0

	c := Highpass(60, 0, sr)

	if db := c.MagnitudeDB(60, sr); math.Abs(db+3.0103) > 0.05 {
		t.Fatalf("gain at cutoff = %v dB, want about -3 dB", db)
	}

	if db := c.MagnitudeDB(10, sr); db > -25 {
		t.Fatalf("gain at 10 Hz = %v dB, want strong attenuation", db)
	}

	if db := c.MagnitudeDB(440, sr); math.Abs(db) > 0.1 {
		t.Fatalf("gain at 440 Hz = %v dB, want about 0 dB", db)
	}
}

func TestInvalidParametersPassThrough(t *testing.T) {
	tests := []struct {
		name       string
		freq, rate float64
	}{
		{name: "zero freq", freq: 0, rate: 44100},
		{name: "above nyquist", freq: 30000, rate: 44100},
		{name: "zero rate", freq: 100, rate: 0},
		{name: "NaN freq", freq: math.NaN(), rate: 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highpass(tt.freq, 0, tt.rate); got != biquad.Passthrough() {
				t.Fatalf("Highpass() = %+v, want passthrough", got)
			}
		})
	}
}
