package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-vocal/measure/pitch"
	"github.com/cwbudde/algo-vocal/stats/vocal"
)

func TestPrintReport(t *testing.T) {
	var s vocal.Snapshot
	s.Session.Duration = 2500 * time.Millisecond
	s.Session.AccuracyScore = 82
	s.Session.NotesHit.Add(69)
	s.Session.NotesHit.Add(71)
	s.Stability.PitchConsistency = 90
	s.Vibrato = vocal.VibratoMetrics{Detected: true, Rate: 5.5, Depth: 40}
	s.Target = pitch.NoteFromMIDI(69)
	s.TargetFixed = true

	var buf bytes.Buffer
	printReport(&buf, s)
	out := buf.String()

	for _, want := range []string{
		"Duration       2.5s",
		"Target         A4",
		"Accuracy       82%",
		"Vibrato        5.5 Hz, 40 cents",
		"Notes hit      2 A4 B4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "Formants") {
		t.Fatalf("report shows formants without a valid estimate:\n%s", out)
	}
}

func TestStatusLineUnvoiced(t *testing.T) {
	line := statusLine(vocal.Snapshot{})
	if !strings.HasPrefix(line, "--") {
		t.Fatalf("statusLine() = %q, want unvoiced marker", line)
	}
}

func TestStatusLineShowsPeak(t *testing.T) {
	var s vocal.Snapshot
	s.Volume = vocal.VolumeLevel{Current: 40, Average: 35, Peak: 72}

	if line := statusLine(s); !strings.Contains(line, "vol  40% pk  72%") {
		t.Fatalf("statusLine() = %q, want current and peak volume", line)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(options{
		target:   "C4",
		shift:    -3,
		formants: true,
		set:      map[string]bool{"target": true, "shift": true, "formants": true},
	})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Metrics.Target != "C4" || cfg.Shift.Semitones != -3 || !cfg.Audio.Formants {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	if _, err := loadConfig(options{target: "X9", set: map[string]bool{"target": true}}); err == nil {
		t.Fatal("expected error for invalid target")
	}
	if _, err := loadConfig(options{shift: 20, set: map[string]bool{"shift": true}}); err == nil {
		t.Fatal("expected error for shift out of range")
	}
}

func TestLoadConfigZeroFlagsOverrideProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	profile := "audio:\n  formants: true\nmetrics:\n  target: A4\nshift:\n  semitones: 5\n  retune: true\n"
	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		t.Fatal(err)
	}

	// Flags left at their zero value but not given keep the profile.
	cfg, err := loadConfig(options{configPath: path})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Shift.Semitones != 5 || !cfg.Audio.Formants || cfg.Metrics.Target != "A4" || !cfg.Shift.Retune {
		t.Fatalf("profile not kept: %+v", cfg)
	}

	// "-shift 0 -formants=false -target= -retune=false" clears them.
	cfg, err = loadConfig(options{
		configPath: path,
		set:        map[string]bool{"shift": true, "formants": true, "target": true, "retune": true},
	})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Shift.Semitones != 0 || cfg.Audio.Formants || cfg.Metrics.Target != "" || cfg.Shift.Retune {
		t.Fatalf("explicit zero flags not applied: %+v", cfg)
	}
}
