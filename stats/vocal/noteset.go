package vocal

import (
	"math/bits"

	"github.com/cwbudde/algo-vocal/measure/pitch"
)

// NoteSet is a set of MIDI notes 0..127 stored as a bitset.
type NoteSet [2]uint64

// Add inserts a MIDI note. Out-of-range notes are ignored.
func (s *NoteSet) Add(midi int) {
	if midi < 0 || midi > 127 {
		return
	}
	s[midi>>6] |= 1 << (uint(midi) & 63)
}

// Has reports whether the MIDI note is in the set.
func (s NoteSet) Has(midi int) bool {
	if midi < 0 || midi > 127 {
		return false
	}
	return s[midi>>6]&(1<<(uint(midi)&63)) != 0
}

// Len returns the number of notes in the set.
func (s NoteSet) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1])
}

// Notes returns the notes in ascending order.
func (s NoteSet) Notes() []pitch.Note {
	out := make([]pitch.Note, 0, s.Len())
	for midi := 0; midi < 128; midi++ {
		if s.Has(midi) {
			out = append(out, pitch.NoteFromMIDI(midi))
		}
	}
	return out
}
