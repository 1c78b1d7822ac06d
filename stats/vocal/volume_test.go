package vocal

import (
	"math"
	"testing"
	"time"
)

func TestLevelPercent(t *testing.T) {
	tests := []struct {
		rms  float64
		want float64
	}{
		{rms: 1, want: 100},
		{rms: 2, want: 100},
		{rms: 0.01, want: 100.0 / 3},
		{rms: 0.001, want: 0},
		{rms: 1e-6, want: 0},
		{rms: 0, want: 0},
		{rms: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		if got := LevelPercent(tt.rms); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("LevelPercent(%v) = %v, want %v", tt.rms, got, tt.want)
		}
	}
}

func TestVolumeMeterAverage(t *testing.T) {
	m := NewVolumeMeter(10*time.Millisecond, time.Second)

	l := m.Update(1)
	if l.Current != 100 || l.Average != 100 {
		t.Fatalf("first update = %+v, want 100/100", l)
	}

	// One time constant of silence decays the average to 1/e.
	for range 100 {
		l = m.Update(0)
	}

	if l.Current != 0 {
		t.Fatalf("current = %v, want 0", l.Current)
	}

	if math.Abs(l.Average-100/math.E) > 0.5 {
		t.Fatalf("average = %v, want about %v", l.Average, 100/math.E)
	}

	m.Reset()
	if m.Level() != (VolumeLevel{}) {
		t.Fatalf("level after Reset = %+v", m.Level())
	}
}

func TestVolumeMeterPeak(t *testing.T) {
	m := NewVolumeMeter(10*time.Millisecond, time.Second)

	l := m.UpdatePeak(0.01, 1)
	if math.Abs(l.Current-100.0/3) > 1e-9 || l.Peak != 100 {
		t.Fatalf("UpdatePeak(0.01, 1) = %+v, want current 33.3 peak 100", l)
	}

	// A peak below the RMS level is not physical; Peak never drops under Current.
	l = m.UpdatePeak(1, 0)
	if l.Peak != l.Current {
		t.Fatalf("peak = %v, want %v", l.Peak, l.Current)
	}

	l = m.Update(0.01)
	if l.Peak != l.Current {
		t.Fatalf("Update peak = %v, want current %v", l.Peak, l.Current)
	}
}
