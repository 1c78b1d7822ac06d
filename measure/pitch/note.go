package pitch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultReference is the concert pitch of A4 in Hz.
const DefaultReference = 440.0

// midiA4 is the MIDI note number of A4.
const midiA4 = 69

// PitchClass is a note name within an octave, C = 0 through B = 11.
//
//nolint:revive
type PitchClass int

var pitchClassNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// String returns the sharp-spelled note name.
func (c PitchClass) String() string {
	if c < 0 || c > 11 {
		return "?"
	}
	return pitchClassNames[c]
}

// Note is an equal-tempered note.
type Note struct {
	Class  PitchClass
	Octave int
	MIDI   int
}

// Name returns the note name without octave, e.g. "F#".
func (n Note) Name() string { return n.Class.String() }

// String returns scientific pitch notation, e.g. "A4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Class, n.Octave)
}

// Frequency returns the equal-tempered frequency of n for the given A4
// reference.
func (n Note) Frequency(reference float64) float64 {
	return reference * math.Exp2(float64(n.MIDI-midiA4)/12)
}

// NoteFromMIDI returns the note for a MIDI note number.
func NoteFromMIDI(midi int) Note {
	rel := midi - midiA4 + 9 // semitones above C4
	return Note{
		Class:  PitchClass(mod(rel, 12)),
		Octave: 4 + floorDiv(rel, 12),
		MIDI:   midi,
	}
}

// NoteFromFrequency maps freq to the nearest equal-tempered note and returns
// the deviation from it in cents, in [-50, +50]. reference is the frequency
// of A4; values <= 0 select DefaultReference. freq must be > 0.
func NoteFromFrequency(freq, reference float64) (Note, float64) {
	if reference <= 0 {
		reference = DefaultReference
	}
	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return Note{}, 0
	}

	semitones := CentsBetween(freq, reference) / 100
	nearest := math.Round(semitones)

	return NoteFromMIDI(midiA4 + int(nearest)), 100 * (semitones - nearest)
}

// ParseNote parses scientific pitch notation such as "A4", "F#3", "Bb2"
// or "C-1". Flats are accepted and normalized to sharps.
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Note{}, fmt.Errorf("pitch: invalid note %q", s)
	}

	letter := s[0]
	if 'a' <= letter && letter <= 'z' {
		letter -= 'a' - 'A'
	}

	class := strings.IndexByte("C D EF G A B", letter)
	if class < 0 || letter == ' ' {
		return Note{}, fmt.Errorf("pitch: invalid note name %q", s)
	}

	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		class++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		class--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Note{}, fmt.Errorf("pitch: invalid octave in %q", s)
	}

	midi := (octave+1)*12 + class
	if midi < 0 || midi > 127 {
		return Note{}, fmt.Errorf("pitch: note %q outside MIDI range", s)
	}

	return NoteFromMIDI(midi), nil
}

// CentsBetween returns the interval from ref to freq in cents.
func CentsBetween(freq, ref float64) float64 {
	if freq <= 0 || ref <= 0 {
		return 0
	}
	return 1200 * math.Log2(freq/ref)
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
