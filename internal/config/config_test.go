package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pitchshift "github.com/cwbudde/algo-vocal/dsp/effects/pitch"
	"github.com/cwbudde/algo-vocal/measure/formant"
	"github.com/cwbudde/algo-vocal/measure/pitch"
	"github.com/cwbudde/algo-vocal/stats/vocal"
	"github.com/cwbudde/algo-vocal/tuner"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}

	if cfg != Default() {
		t.Fatalf("Parse(nil) = %+v, want defaults", cfg)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
log_level: debug
audio:
  sample_rate: 48000
  formants: true
detector:
  min_frequency: 60
  continuity: 0.9
metrics:
  window: 5s
  sustain: 250ms
  target: F#3
shift:
  semitones: -2
  mode: overlap-add
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Audio.SampleRate != 48000 || cfg.Audio.BlockSize != 1024 {
		t.Fatalf("audio = %+v", cfg.Audio)
	}
	if !cfg.Audio.Formants {
		t.Fatal("formants not enabled")
	}
	if cfg.Detector.MinFrequency != 60 || cfg.Detector.MaxFrequency != 1100 || cfg.Detector.Continuity != 0.9 {
		t.Fatalf("detector = %+v", cfg.Detector)
	}
	if cfg.Metrics.Window != 5*time.Second || cfg.Metrics.Sustain != 250*time.Millisecond {
		t.Fatalf("metrics = %+v", cfg.Metrics)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}

	n, ok := cfg.Target()
	if !ok || n.String() != "F#3" {
		t.Fatalf("Target() = %v, %v, want F#3", n, ok)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "audio:\n  rate: 1\n", "field rate not found"},
		{"sample rate", "audio:\n  sample_rate: 1000\n", "audio.sample_rate must be greater than or equal to 8000"},
		{"block size", "audio:\n  block_size: 100000\n", "audio.block_size must be less than or equal to 8192"},
		{"range order", "detector:\n  min_frequency: 2000\n", "detector.min_frequency must be less than MaxFrequency"},
		{"threshold", "detector:\n  threshold: 0\n", "detector.threshold must be greater than 0"},
		{"target", "metrics:\n  target: H2\n", `metrics.target must be a note such as A4 or F#3, got "H2"`},
		{"mode", "shift:\n  mode: granular\n", "shift.mode must be one of: resample overlap-add"},
		{"factor", "shift:\n  factor: 3\n", "shift.factor must be less than or equal to 2"},
		{"log level", "log_level: loud\n", "log_level must be one of"},
		{"continuity", "detector:\n  continuity: 0\n", "detector.continuity must be greater than 0"},
		{"weights", "metrics:\n  consistency_weight: 0\n  in_tune_weight: 0\n", "must not both be 0"},
		{"volume tau", "metrics:\n  volume_time_constant: 0s\n", "metrics.volume_time_constant must be greater than 0"},
		{"flatness", "formant:\n  max_flatness: 2\n", "formant.max_flatness must be less than or equal to 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.Audio.SampleRate = 0
	cfg.Shift.Mode = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}

	msg := err.Error()
	for _, want := range []string{"audio.sample_rate", "shift.mode"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q does not mention %s", msg, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("metrics:\n  tolerance_cents: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metrics.ToleranceCents != 10 {
		t.Fatalf("tolerance = %v, want 10", cfg.Metrics.ToleranceCents)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOptionsBuildComponents(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Target = "A4"
	cfg.Shift.Semitones = 12
	cfg.Shift.Mode = "overlap-add"

	if _, err := pitch.NewDetector(cfg.DetectorOptions()...); err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	if _, err := vocal.NewAggregator(cfg.AggregatorOptions()...); err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}

	s, err := pitchshift.NewShifter(cfg.ShifterOptions()...)
	if err != nil {
		t.Fatalf("NewShifter() error = %v", err)
	}
	if s.Mode() != pitchshift.ModeOverlapAdd {
		t.Fatalf("Mode() = %v, want overlap-add", s.Mode())
	}
	if f := s.Factor(); f < 1.999 || f > 2.001 {
		t.Fatalf("Factor() = %v, want 2 from +12 semitones", f)
	}

	if _, err := formant.NewEstimator(cfg.FormantOptions()...); err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	if _, err := tuner.New(nopSource{}, cfg.TunerOptions()...); err != nil {
		t.Fatalf("tuner.New() error = %v", err)
	}

	retune := append(cfg.TunerOptions(), tuner.WithShifter(s))
	cfg.Shift.Retune = true
	if _, err := tuner.New(nopSource{}, cfg.TunerOptions()...); err == nil {
		t.Fatal("tuner.New() accepted retune without a shifter")
	}
	if _, err := tuner.New(nopSource{}, append(retune, tuner.WithRetune(true))...); err != nil {
		t.Fatalf("tuner.New() with retune error = %v", err)
	}
}

func TestTargetUnset(t *testing.T) {
	if _, ok := Default().Target(); ok {
		t.Fatal("Target() reported a note for free tuning")
	}
}

type nopSource struct{}

func (nopSource) Open(tuner.StreamConfig, tuner.BlockFunc) (tuner.Stream, error) {
	return nil, nil
}
