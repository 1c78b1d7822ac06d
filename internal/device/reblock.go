package device

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-vocal/tuner"
)

// reblocker regroups an arbitrary sample stream into blocks of a fixed
// length. It never allocates after construction.
type reblocker struct {
	block []float64
	fill  int
	fn    tuner.BlockFunc
}

func newReblocker(size int, fn tuner.BlockFunc) *reblocker {
	return &reblocker{block: make([]float64, size), fn: fn}
}

func (r *reblocker) push(x float64) {
	r.block[r.fill] = x
	r.fill++
	if r.fill == len(r.block) {
		r.fn(r.block)
		r.fill = 0
	}
}

// writeFloat32LE consumes interleaved little-endian float32 frames and
// pushes their channel average.
func (r *reblocker) writeFloat32LE(b []byte, channels int) {
	if channels < 1 {
		channels = 1
	}
	stride := 4 * channels
	scale := 1 / float64(channels)

	for off := 0; off+stride <= len(b); off += stride {
		sum := 0.0
		for ch := range channels {
			bits := binary.LittleEndian.Uint32(b[off+4*ch:])
			sum += float64(math.Float32frombits(bits))
		}
		r.push(sum * scale)
	}
}

// writeStereo pushes the mono mix of beep frames.
func (r *reblocker) writeStereo(frames [][2]float64) {
	for _, f := range frames {
		r.push(0.5 * (f[0] + f[1]))
	}
}

// flush zero-pads and delivers a partial block. It reports whether a block
// was delivered.
func (r *reblocker) flush() bool {
	if r.fill == 0 {
		return false
	}
	clear(r.block[r.fill:])
	r.fill = 0
	r.fn(r.block)
	return true
}

func (r *reblocker) reset() {
	r.fill = 0
}
