package time

import (
	"math"
	"testing"
)

const tolerance = 1e-10

// generateSine creates exactly numCycles full cycles of a sine wave.
func generateSine(amplitude, freq, sampleRate float64, numCycles int) []float64 {
	samplesPerCycle := int(sampleRate / freq)
	n := samplesPerCycle * numCycles
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestRMSSine(t *testing.T) {
	s := generateSine(0.5, 1000, 48000, 10)

	want := 0.5 / math.Sqrt2
	if got := RMS(s); math.Abs(got-want) > 1e-9 {
		t.Fatalf("RMS() = %v, want %v", got, want)
	}
}

func TestEmptyAndSilentSignals(t *testing.T) {
	if RMS(nil) != 0 {
		t.Fatal("expected zero RMS for empty signal")
	}

	if l := Measure(nil); l != (Level{}) {
		t.Fatalf("Measure(nil) = %+v", l)
	}

	if l := Measure(make([]float64, 16)); l != (Level{}) {
		t.Fatalf("Measure(silence) = %+v", l)
	}
}

func TestMeasure(t *testing.T) {
	signal := []float64{0.1, -0.4, 0.3, 0.25, -0.05}

	l := Measure(signal)

	if math.Abs(l.RMS-RMS(signal)) > tolerance {
		t.Errorf("RMS: got %v, want %v", l.RMS, RMS(signal))
	}

	if l.Peak != 0.4 {
		t.Errorf("Peak: got %v, want 0.4", l.Peak)
	}
}
