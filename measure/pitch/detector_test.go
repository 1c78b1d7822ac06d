package pitch

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vocal/internal/testutil"
)

const (
	testSampleRate = 44100.0
	testBlockSize  = 1024
)

func newTestDetector(t *testing.T, opts ...Option) *Detector {
	t.Helper()

	d, err := NewDetector(opts...)
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	return d
}

// detectTone feeds a continuous tone in blocks and returns every estimate.
func detectTone(d *Detector, freq float64, blocks int) []Estimate {
	sig := testutil.DeterministicSine(freq, testSampleRate, 0.5, blocks*testBlockSize)

	out := make([]Estimate, 0, blocks)
	for _, b := range testutil.Blocks(sig, testBlockSize) {
		out = append(out, d.Detect(b))
	}

	return out
}

func TestDetectA4(t *testing.T) {
	d := newTestDetector(t)

	est := detectTone(d, 440, 6)
	last := est[len(est)-1]

	if !last.Voiced {
		t.Fatalf("estimate not voiced: %+v", last)
	}

	if last.Note.Name() != "A" || last.Note.Octave != 4 {
		t.Fatalf("note = %s, want A4", last.Note)
	}

	if math.Abs(last.Cents) > 5 {
		t.Fatalf("cents = %v, want within 5 of 0", last.Cents)
	}

	if math.Abs(last.Frequency-440) > 1 {
		t.Fatalf("frequency = %v, want about 440", last.Frequency)
	}

	if last.Confidence < 0.9 {
		t.Fatalf("confidence = %v, want >= 0.9 for a pure tone", last.Confidence)
	}
}

func TestDetectAcrossVocalRange(t *testing.T) {
	tests := []struct {
		freq float64
		note string
	}{
		{freq: 82.40689, note: "E2"},
		{freq: 110, note: "A2"},
		{freq: 196, note: "G3"},
		{freq: 261.6256, note: "C4"},
		{freq: 523.2511, note: "C5"},
		{freq: 987.7666, note: "B5"},
	}

	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			d := newTestDetector(t)

			est := detectTone(d, tt.freq, 5)
			last := est[len(est)-1]

			if !last.Voiced {
				t.Fatalf("not voiced: %+v", last)
			}

			if last.Note.String() != tt.note {
				t.Fatalf("note = %s, want %s", last.Note, tt.note)
			}

			if math.Abs(last.Cents) > 5 {
				t.Fatalf("cents = %v, want within 5", last.Cents)
			}
		})
	}
}

func TestDetectSilenceIsUnvoiced(t *testing.T) {
	d := newTestDetector(t)

	est := d.Detect(make([]float64, testBlockSize))
	if est.Voiced || est.Frequency != 0 || est.Cents != 0 {
		t.Fatalf("silence estimate = %+v, want zero unvoiced", est)
	}

	// A tone below the silence floor is not reported.
	est = d.Detect(testutil.DeterministicSine(440, testSampleRate, 0.003, testBlockSize))
	if est.Voiced {
		t.Fatalf("quiet tone estimate = %+v, want unvoiced", est)
	}
}

func TestDetectNoiseIsUnvoiced(t *testing.T) {
	d := newTestDetector(t)

	noise := testutil.DeterministicNoise(7, 0.5, 8*testBlockSize)
	for i, b := range testutil.Blocks(noise, testBlockSize) {
		if est := d.Detect(b); est.Voiced {
			t.Fatalf("block %d: noise detected as %+v", i, est)
		}
	}
}

func TestDetectMalformedBlocks(t *testing.T) {
	d := newTestDetector(t)

	if est := d.Detect(nil); est.Voiced {
		t.Fatalf("nil block voiced: %+v", est)
	}

	short := testutil.DeterministicSine(440, testSampleRate, 0.5, 100)
	if est := d.Detect(short); est.Voiced {
		t.Fatalf("100-sample block voiced: %+v", est)
	}

	long := testutil.DeterministicSine(440, testSampleRate, 0.5, 3*testBlockSize)
	d.Detect(long)
	est := d.Detect(long)
	if !est.Voiced || est.Note.String() != "A4" {
		t.Fatalf("oversized block estimate = %+v, want A4", est)
	}
}

func TestDetectOctaveJumpHysteresis(t *testing.T) {
	d := newTestDetector(t)

	detectTone(d, 220, 4)

	est := detectTone(d, 440, 8)
	if est[0].Note.String() != "A3" {
		t.Fatalf("first block after jump = %s, want previous octave A3", est[0].Note)
	}

	last := est[len(est)-1]
	if last.Note.String() != "A4" {
		t.Fatalf("after %d blocks note = %s, want A4", len(est), last.Note)
	}

	// Without the continuity bias the jump is immediate.
	free := newTestDetector(t, WithContinuity(1))
	detectTone(free, 220, 4)

	if got := detectTone(free, 440, 1)[0].Note.String(); got != "A4" {
		t.Fatalf("without continuity note = %s, want A4", got)
	}
}

func TestDetectorResetForgetsPeriod(t *testing.T) {
	d := newTestDetector(t)

	detectTone(d, 220, 4)
	if d.prevLag == 0 {
		t.Fatal("expected a previous period after voiced blocks")
	}

	d.Reset()

	if d.prevLag != 0 {
		t.Fatalf("prevLag after Reset = %v, want 0", d.prevLag)
	}

	if got := detectTone(d, 440, 2)[1].Note.String(); got != "A4" {
		t.Fatalf("note after Reset = %s, want A4", got)
	}
}

func TestContinuityLapsesAfterSilence(t *testing.T) {
	d := newTestDetector(t)

	detectTone(d, 220, 4)
	for range continuityHold + 1 {
		d.Detect(make([]float64, testBlockSize))
	}

	if d.prevLag != 0 {
		t.Fatalf("prevLag after silence = %v, want 0", d.prevLag)
	}
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "zero sample rate", opts: []Option{WithSampleRate(0)}},
		{name: "tiny block", opts: []Option{WithBlockSize(16)}},
		{name: "block too short for range", opts: []Option{WithBlockSize(256)}},
		{name: "inverted range", opts: []Option{WithRange(500, 100)}},
		{name: "range above nyquist", opts: []Option{WithSampleRate(8000), WithRange(80, 5000)}},
		{name: "zero threshold", opts: []Option{WithThreshold(0)}},
		{name: "negative floor", opts: []Option{WithSilenceFloor(-1)}},
		{name: "continuity above one", opts: []Option{WithContinuity(1.5)}},
		{name: "negative reference", opts: []Option{WithReference(-440)}},
		{name: "NaN highpass", opts: []Option{WithHighpass(math.NaN())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDetector(tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDetectWithoutHighpass(t *testing.T) {
	d := newTestDetector(t, WithHighpass(0), WithBlockSize(2048), WithSampleRate(48000))

	sig := testutil.DeterministicSine(330, 48000, 0.3, 2048)
	est := d.Detect(sig)

	if !est.Voiced || est.Note.String() != "E4" {
		t.Fatalf("estimate = %+v, want E4", est)
	}

	if d.SampleRate() != 48000 || d.BlockSize() != 2048 || d.Reference() != 440 {
		t.Fatal("accessors do not reflect options")
	}
}

func TestDetectDoesNotAllocate(t *testing.T) {
	d := newTestDetector(t)
	block := testutil.DeterministicSine(440, testSampleRate, 0.5, testBlockSize)

	allocs := testing.AllocsPerRun(50, func() {
		d.Detect(block)
	})

	if allocs != 0 {
		t.Fatalf("Detect allocated %.1f times per call", allocs)
	}
}
