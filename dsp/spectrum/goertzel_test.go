package spectrum

import (
	"math"
	"testing"
)

func TestGoertzelMatchesDFTBin(t *testing.T) {
	const (
		sr = 8000.0
		n  = 400
		f  = 1000.0 // integer number of cycles
	)

	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * f * float64(i) / sr)
	}

	p, err := AnalyzeBlock(x, f, sr)
	if err != nil {
		t.Fatalf("AnalyzeBlock() error = %v", err)
	}

	// |X[k]| = N/2 for a unit sine on a bin center.
	want := float64(n*n) / 4
	if math.Abs(p-want)/want > 1e-6 {
		t.Fatalf("power = %v, want %v", p, want)
	}

	off, err := AnalyzeBlock(x, 1500, sr)
	if err != nil {
		t.Fatalf("AnalyzeBlock() error = %v", err)
	}

	if off > want*1e-6 {
		t.Fatalf("off-bin power = %v, want ~0", off)
	}
}

func TestGoertzelReset(t *testing.T) {
	g, err := NewGoertzel(440, 44100)
	if err != nil {
		t.Fatalf("NewGoertzel() error = %v", err)
	}

	g.ProcessBlock([]float64{1, 0.5, -0.25})
	g.Reset()

	if p := g.Power(); p != 0 {
		t.Fatalf("Power() after Reset = %v, want 0", p)
	}

	if g.Frequency() != 440 {
		t.Fatalf("Frequency() = %v, want 440", g.Frequency())
	}
}

func TestGoertzelInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		f    float64
		sr   float64
	}{
		{name: "zero rate", f: 100, sr: 0},
		{name: "above nyquist", f: 5000, sr: 8000},
		{name: "negative frequency", f: -1, sr: 8000},
		{name: "NaN rate", f: 100, sr: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGoertzel(tt.f, tt.sr); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
