package pitch

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vocal/dsp/core"
	"github.com/cwbudde/algo-vocal/dsp/interp"
	"github.com/cwbudde/algo-vocal/dsp/window"
)

// heads is the number of overlap-add read heads. Four periodic Hann windows
// offset by a quarter period sum to 2.
const heads = 4

// shiftState is owned by the render side and allocated once.
type shiftState struct {
	block  []float64 // copy of the current input block
	work   []float64 // delay line, four blocks long
	window []float64 // periodic Hann over len(work)
	hop    int       // len(work) / heads

	phase int     // read-phase accumulator, wraps at the input length
	write int     // delay-line write cursor
	head  float64 // overlap-add head phase in [0, 1)
}

func (s *shiftState) reset() {
	core.Zero(s.block)
	core.Zero(s.work)
	s.phase = 0
	s.write = 0
	s.head = 0
}

// Shifter shifts the pitch of a mono block stream by a factor in
// [MinFactor, MaxFactor].
//
// ProcessBlock, ProcessVarying, Process and ProcessInPlace must be called
// from one goroutine at a time. SetFactor, SetSemitones, Factor, Reset and
// Anomalies are safe from any goroutine.
type Shifter struct {
	cfg config

	factor    atomic.Uint64 // math.Float64bits of the clamped factor
	resetReq  atomic.Bool
	anomalies atomic.Uint64

	state shiftState
}

// NewShifter creates a Shifter and allocates all of its state.
func NewShifter(opts ...Option) (*Shifter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	workLen := heads * cfg.BlockSize
	win, err := window.Hann(workLen, window.WithPeriodic())
	if err != nil {
		return nil, err
	}

	s := &Shifter{
		cfg: cfg,
		state: shiftState{
			block:  make([]float64, cfg.BlockSize),
			work:   make([]float64, workLen),
			window: win,
			hop:    workLen / heads,
		},
	}
	s.factor.Store(math.Float64bits(cfg.factor))

	return s, nil
}

// BlockSize returns the configured block length.
func (s *Shifter) BlockSize() int { return s.cfg.BlockSize }

// SampleRate returns the configured sample rate in Hz.
func (s *Shifter) SampleRate() float64 { return s.cfg.SampleRate }

// Mode returns the read strategy.
func (s *Shifter) Mode() Mode { return s.cfg.mode }

// Factor returns the current shift factor.
func (s *Shifter) Factor() float64 {
	return math.Float64frombits(s.factor.Load())
}

// SetFactor stores f clamped to [MinFactor, MaxFactor]. The next block
// uses the new value.
func (s *Shifter) SetFactor(f float64) {
	s.factor.Store(math.Float64bits(ClampFactor(f)))
}

// SetSemitones sets the factor from a shift in semitones.
func (s *Shifter) SetSemitones(semitones float64) {
	s.SetFactor(FactorFromSemitones(semitones))
}

// Semitones returns the current shift in semitones.
func (s *Shifter) Semitones() float64 {
	return 12 * math.Log2(s.Factor())
}

// Reset requests that the read phase and delay line be cleared before the
// next block.
func (s *Shifter) Reset() {
	s.resetReq.Store(true)
}

// Anomalies returns how many malformed blocks have been passed through.
func (s *Shifter) Anomalies() uint64 {
	return s.anomalies.Load()
}

// ProcessBlock shifts src into dst using the current factor. dst and src
// may be the same slice.
//
// An empty src yields a silent dst. If the lengths differ, or src is longer
// than the block size, the common prefix is copied through unchanged, the
// rest of dst is zeroed and the anomaly counter is incremented.
func (s *Shifter) ProcessBlock(dst, src []float64) {
	if !s.accept(dst, src) {
		return
	}

	f := s.Factor()
	s.run(dst, src, f, nil)
}

// ProcessVarying is like ProcessBlock with one factor per sample. Factors
// are clamped individually; factors shorter than src is an anomaly.
func (s *Shifter) ProcessVarying(dst, src, factors []float64) {
	if len(factors) < len(src) {
		s.applyReset()
		s.passthrough(dst, src)
		return
	}

	if !s.accept(dst, src) {
		return
	}

	s.run(dst, src, 0, factors[:len(src)])
}

// Process shifts input block by block and returns a new slice of the same
// length. A trailing partial block is processed with its own length.
func (s *Shifter) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	out := make([]float64, len(input))
	for start := 0; start < len(input); start += s.cfg.BlockSize {
		end := min(start+s.cfg.BlockSize, len(input))
		s.ProcessBlock(out[start:end], input[start:end])
	}

	return out
}

// ProcessInPlace shifts buf in place, block by block.
func (s *Shifter) ProcessInPlace(buf []float64) {
	for start := 0; start < len(buf); start += s.cfg.BlockSize {
		end := min(start+s.cfg.BlockSize, len(buf))
		s.ProcessBlock(buf[start:end], buf[start:end])
	}
}

// accept applies a pending reset and reports whether src can be processed.
func (s *Shifter) accept(dst, src []float64) bool {
	s.applyReset()

	if len(src) == 0 {
		core.Zero(dst)
		return false
	}

	if len(dst) != len(src) || len(src) > len(s.state.block) {
		s.passthrough(dst, src)
		return false
	}

	return true
}

func (s *Shifter) applyReset() {
	if s.resetReq.CompareAndSwap(true, false) {
		s.state.reset()
	}
}

func (s *Shifter) passthrough(dst, src []float64) {
	core.CopyInto(dst, src)
	s.anomalies.Add(1)
}

func (s *Shifter) run(dst, src []float64, factor float64, factors []float64) {
	switch s.cfg.mode {
	case ModeOverlapAdd:
		s.overlapAdd(dst, src, factor, factors)
	default:
		s.resample(dst, src, factor, factors)
	}
}

// resample reads the input block at readPos = p*factor, wrapping modulo the
// block length, and advances p by one per output sample.
func (s *Shifter) resample(dst, src []float64, factor float64, factors []float64) {
	st := &s.state
	n := len(src)

	in := st.block[:n]
	copy(in, src)

	p := st.phase
	if p >= n {
		p %= n
	}

	for i := range dst {
		f := factor
		if factors != nil {
			f = ClampFactor(factors[i])
		}

		dst[i] = interp.RingLinear(in, float64(p)*f)

		p++
		if p == n {
			p = 0
		}
	}

	st.phase = p
}

// overlapAdd writes src into the delay line and reads it back through four
// heads spaced one hop apart. Each head's delay drifts by (1-factor)
// samples per sample and wraps while its window weight is zero.
func (s *Shifter) overlapAdd(dst, src []float64, factor float64, factors []float64) {
	st := &s.state
	size := len(st.work)
	span := float64(size - 2)

	for i, x := range src {
		f := factor
		if factors != nil {
			f = ClampFactor(factors[i])
		}

		st.work[st.write] = x

		base := int(st.head * float64(size))
		if base >= size {
			base = size - 1
		}

		y := 0.0
		for k := range heads {
			ph := st.head + float64(k)/heads
			if ph >= 1 {
				ph--
			}

			w := st.window[(base+k*st.hop)%size]
			if w == 0 {
				continue
			}

			y += 0.5 * w * interp.RingLinear(st.work, float64(st.write)-ph*span)
		}

		dst[i] = core.FlushDenormals(y)

		st.head = core.WrapPhase(st.head+(1-f)/span, 1)

		st.write++
		if st.write == size {
			st.write = 0
		}
	}
}
