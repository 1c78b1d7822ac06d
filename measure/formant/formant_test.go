package formant

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vocal/internal/testutil"
)

// vowelTone synthesizes a harmonic series at f0 whose harmonic amplitudes
// follow two resonances at f1 and f2.
func vowelTone(f0, f1, f2, sr float64, n int) []float64 {
	out := make([]float64, n)
	for k := 1; float64(k)*f0 < 4000; k++ {
		fk := float64(k) * f0
		a := math.Exp(-sq((fk-f1)/120)) + 0.7*math.Exp(-sq((fk-f2)/150)) + 0.02
		for i := range out {
			out[i] += 0.1 * a * math.Sin(2*math.Pi*fk*float64(i)/sr)
		}
	}
	return out
}

func sq(x float64) float64 { return x * x }

func TestEstimateVowels(t *testing.T) {
	tests := []struct {
		name   string
		f1, f2 float64
		want   Vowel
	}{
		{name: "a", f1: 730, f2: 1090, want: VowelA},
		{name: "i", f1: 270, f2: 2290, want: VowelI},
		{name: "e", f1: 530, f2: 1840, want: VowelE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEstimator()
			if err != nil {
				t.Fatalf("NewEstimator() error = %v", err)
			}

			est := e.Estimate(vowelTone(150, tt.f1, tt.f2, 44100, 1024))
			if !est.Valid {
				t.Fatalf("estimate not valid: %+v", est)
			}

			if math.Abs(est.F1-tt.f1) > 150 {
				t.Errorf("F1 = %.0f, want about %.0f", est.F1, tt.f1)
			}

			if math.Abs(est.F2-tt.f2) > 250 {
				t.Errorf("F2 = %.0f, want about %.0f", est.F2, tt.f2)
			}

			if est.Vowel != tt.want {
				t.Errorf("vowel = %s, want %s", est.Vowel, tt.want)
			}

			if est.Centroid <= 0 {
				t.Errorf("centroid = %v, want > 0", est.Centroid)
			}
		})
	}
}

func TestEstimateRejectsSilenceAndNoise(t *testing.T) {
	e, err := NewEstimator()
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	if est := e.Estimate(make([]float64, 1024)); est.Valid {
		t.Fatalf("silence estimate valid: %+v", est)
	}

	if est := e.Estimate(testutil.DeterministicNoise(3, 0.5, 1024)); est.Valid {
		t.Fatalf("noise estimate valid: %+v", est)
	}

	if est := e.Estimate(nil); est.Valid {
		t.Fatalf("nil estimate valid: %+v", est)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		f1, f2 float64
		want   Vowel
	}{
		{f1: 730, f2: 1090, want: VowelA},
		{f1: 300, f2: 870, want: VowelU},
		{f1: 570, f2: 840, want: VowelO},
		{f1: 1500, f2: 4000, want: VowelUnknown},
		{f1: 0, f2: 1000, want: VowelUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.f1, tt.f2); got != tt.want {
			t.Fatalf("Classify(%v, %v) = %s, want %s", tt.f1, tt.f2, got, tt.want)
		}
	}

	if Vowel(42).String() != "?" {
		t.Fatal("unexpected name for invalid vowel")
	}
}

func TestNewEstimatorValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "zero rate", opts: []Option{WithSampleRate(0)}},
		{name: "rate too low", opts: []Option{WithSampleRate(4000)}},
		{name: "small size", opts: []Option{WithSize(64)}},
		{name: "zero smoothing", opts: []Option{WithSmoothing(0)}},
		{name: "flatness above one", opts: []Option{WithMaxFlatness(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEstimator(tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEstimateDoesNotAllocate(t *testing.T) {
	e, err := NewEstimator()
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	block := vowelTone(150, 730, 1090, 44100, 1024)

	if allocs := testing.AllocsPerRun(20, func() { e.Estimate(block) }); allocs != 0 {
		t.Fatalf("Estimate allocated %.1f times per call", allocs)
	}
}
