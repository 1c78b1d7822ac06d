// Package playback adapts block processors to beep streamers so a backing
// track can be pitch-shifted on its way to the speaker.
package playback

import (
	"errors"
	"fmt"

	"github.com/gopxl/beep/v2"

	pitchshift "github.com/cwbudde/algo-vocal/dsp/effects/pitch"
)

// Streamer pulls fixed-size blocks from a source streamer, mixes them to
// mono, runs them through a block processor and emits the result on both
// channels.
//
// The final partial block is zero-padded before processing and only its
// real frames are emitted.
type Streamer struct {
	src  beep.Streamer
	proc pitchshift.BlockProcessor

	frames [][2]float64
	in     []float64
	out    []float64

	pos     int
	valid   int
	drained bool
}

// NewStreamer wraps src. blockSize must match the processor's block size.
func NewStreamer(src beep.Streamer, proc pitchshift.BlockProcessor, blockSize int) (*Streamer, error) {
	if src == nil || proc == nil {
		return nil, errors.New("playback: source and processor must not be nil")
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("playback: block size must be > 0: %d", blockSize)
	}

	return &Streamer{
		src:    src,
		proc:   proc,
		frames: make([][2]float64, blockSize),
		in:     make([]float64, blockSize),
		out:    make([]float64, blockSize),
	}, nil
}

// Stream implements beep.Streamer.
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		if s.pos == s.valid && !s.refill() {
			break
		}

		k := copyStereo(samples[n:], s.out[s.pos:s.valid])
		s.pos += k
		n += k
	}

	return n, n > 0
}

// Err implements beep.Streamer.
func (s *Streamer) Err() error { return s.src.Err() }

func (s *Streamer) refill() bool {
	if s.drained {
		return false
	}

	got := 0
	for got < len(s.frames) {
		k, ok := s.src.Stream(s.frames[got:])
		got += k
		if !ok {
			s.drained = true
			break
		}
	}

	if got == 0 {
		return false
	}

	for i := range got {
		s.in[i] = 0.5 * (s.frames[i][0] + s.frames[i][1])
	}
	clear(s.in[got:])

	s.proc.ProcessBlock(s.out, s.in)
	s.pos = 0
	s.valid = got

	return true
}

func copyStereo(dst [][2]float64, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = [2]float64{src[i], src[i]}
	}
	return n
}
