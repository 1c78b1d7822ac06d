package pitch

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-vocal/dsp/filter/biquad"
	"github.com/cwbudde/algo-vocal/dsp/filter/design"
	"github.com/cwbudde/algo-vocal/dsp/spectrum"
)

// octaveSwitchBlocks is how many consecutive blocks the continuity choice
// may overrule the shortest strong period before the detector accepts an
// octave jump as real.
const octaveSwitchBlocks = 3

// Estimate is the result of analysing one block.
//
// When Voiced is false all other fields are zero. Cents is derived from
// Frequency at construction and lies in [-50, +50].
type Estimate struct {
	Frequency  float64
	Note       Note
	Cents      float64
	Voiced     bool
	Confidence float64
}

// Detector estimates the fundamental frequency of successive blocks.
//
// A Detector keeps filter state and the previously accepted period between
// calls, so one instance must be fed one continuous stream. Detect does not
// allocate. A Detector is not safe for concurrent use.
type Detector struct {
	cfg config

	minLag int
	maxLag int

	plan     *algofft.Plan[complex128]
	frame    []complex128
	spec     []complex128
	re, im   []float64
	power    []float64
	filtered []float64
	nsdf     []float64
	keys     []int

	highpass *biquad.Section

	prevLag     float64
	unvoicedRun int
	disagree    int
}

// NewDetector creates a detector with the given options.
func NewDetector(opts ...Option) (*Detector, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.maxFrequency >= cfg.sampleRate/2 {
		return nil, fmt.Errorf("pitch: max frequency %f must be below Nyquist %f",
			cfg.maxFrequency, cfg.sampleRate/2)
	}

	minLag := int(math.Floor(cfg.sampleRate / cfg.maxFrequency))
	maxLag := int(math.Ceil(cfg.sampleRate / cfg.minFrequency))
	if minLag < 2 {
		minLag = 2
	}
	if maxLag > cfg.blockSize*3/4 {
		return nil, fmt.Errorf("pitch: block size %d too short for %.1f Hz at %.0f Hz (need >= %d)",
			cfg.blockSize, cfg.minFrequency, cfg.sampleRate, maxLag*4/3+1)
	}

	fftSize := nextPowerOfTwo(2 * cfg.blockSize)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: fft plan: %w", err)
	}

	d := &Detector{
		cfg:      cfg,
		minLag:   minLag,
		maxLag:   maxLag,
		plan:     plan,
		frame:    make([]complex128, fftSize),
		spec:     make([]complex128, fftSize),
		re:       make([]float64, fftSize),
		im:       make([]float64, fftSize),
		power:    make([]float64, fftSize),
		filtered: make([]float64, cfg.blockSize),
		nsdf:     make([]float64, maxLag+2),
		keys:     make([]int, 0, maxKeyMaxima),
	}

	if cfg.highpassHz > 0 {
		d.highpass = biquad.NewSection(design.Highpass(cfg.highpassHz, 0, cfg.sampleRate))
	}

	return d, nil
}

// SampleRate returns the configured sample rate in Hz.
func (d *Detector) SampleRate() float64 { return d.cfg.sampleRate }

// BlockSize returns the configured block length.
func (d *Detector) BlockSize() int { return d.cfg.blockSize }

// Reference returns the A4 reference in Hz.
func (d *Detector) Reference() float64 { return d.cfg.reference }

// Reset forgets the previous period and clears the filter state.
func (d *Detector) Reset() {
	d.prevLag = 0
	d.unvoicedRun = 0
	d.disagree = 0
	if d.highpass != nil {
		d.highpass.Reset()
	}
}

// Detect analyses one block. Blocks longer than the configured block size
// are truncated; shorter blocks are analysed as far as their length allows
// and yield an unvoiced estimate when too short for the lowest frequency.
func (d *Detector) Detect(block []float64) Estimate {
	n := min(len(block), d.cfg.blockSize)
	if n == 0 {
		return d.unvoiced()
	}

	x := d.filtered[:n]
	if d.highpass != nil {
		d.highpass.ProcessBlockTo(x, block[:n])
	} else {
		copy(x, block[:n])
	}

	energy := removeMean(x)
	if math.Sqrt(energy/float64(n)) < d.cfg.silenceFloor {
		return d.unvoiced()
	}

	limit := min(d.maxLag+1, n*3/4)
	if limit <= d.minLag+1 {
		return d.unvoiced()
	}

	if !d.normalizedSquareDifference(x, energy, limit) {
		return d.unvoiced()
	}

	keys := d.keyMaxima(limit)
	if len(keys) == 0 {
		return d.unvoiced()
	}

	lag := d.choose(keys)

	offset, clarity := spectrum.ParabolicPeak(d.nsdf[:limit], lag)
	period := float64(lag) + offset
	if clarity < d.cfg.threshold || period <= 0 {
		return d.unvoiced()
	}

	freq := d.cfg.sampleRate / period
	if freq < d.cfg.minFrequency || freq > d.cfg.maxFrequency {
		return d.unvoiced()
	}

	d.prevLag = period
	d.unvoicedRun = 0

	note, cents := NoteFromFrequency(freq, d.cfg.reference)

	return Estimate{
		Frequency:  freq,
		Note:       note,
		Cents:      cents,
		Voiced:     true,
		Confidence: math.Min(clarity, 1),
	}
}

func (d *Detector) unvoiced() Estimate {
	d.unvoicedRun++
	if d.unvoicedRun > continuityHold {
		d.prevLag = 0
		d.disagree = 0
	}
	return Estimate{}
}

// normalizedSquareDifference fills d.nsdf[0:limit] with
//
//	nsdf(t) = 2 r(t) / m(t)
//
// where r is the autocorrelation and m the sum of squared samples of both
// overlapping parts. r comes from |FFT|^2 of the zero-padded block.
func (d *Detector) normalizedSquareDifference(x []float64, energy float64, limit int) bool {
	n := len(x)

	for i := range d.frame {
		d.frame[i] = 0
	}
	for i, v := range x {
		d.frame[i] = complex(v, 0)
	}

	if err := d.plan.Forward(d.spec, d.frame); err != nil {
		return false
	}

	spectrum.PowerTo(d.power, d.re, d.im, d.spec)
	for i, p := range d.power {
		d.spec[i] = complex(p, 0)
	}

	if err := d.plan.Inverse(d.frame, d.spec); err != nil {
		return false
	}

	// Normalize against the direct zero-lag sum so the result does not
	// depend on the transform's scaling convention.
	r0 := real(d.frame[0])
	if r0 <= 0 || energy <= 0 {
		return false
	}
	scale := energy / r0

	m := 2 * energy
	d.nsdf[0] = 1
	for tau := 1; tau < limit; tau++ {
		a, b := x[tau-1], x[n-tau]
		m -= a*a + b*b
		if m <= 1e-12 {
			d.nsdf[tau] = 0
			continue
		}
		d.nsdf[tau] = 2 * real(d.frame[tau]) * scale / m
	}

	return true
}

// keyMaxima returns the highest NSDF lag of each positive lobe after the
// zero-lag lobe, restricted to [minLag, limit-2].
func (d *Detector) keyMaxima(limit int) []int {
	keys := d.keys[:0]
	nsdf := d.nsdf

	tau := 1
	for tau < limit && nsdf[tau] > 0 {
		tau++
	}

	for tau < limit && len(keys) < cap(keys) {
		for tau < limit && nsdf[tau] <= 0 {
			tau++
		}

		best := -1
		for tau < limit && nsdf[tau] > 0 {
			if best < 0 || nsdf[tau] > nsdf[best] {
				best = tau
			}
			tau++
		}

		// A lobe cut off by the range end has no confirmed maximum.
		if best >= d.minLag && best < limit-1 {
			keys = append(keys, best)
		}
	}

	d.keys = keys
	return keys
}

// choose picks the period among the key maxima. The shortest lag within
// keyMaximumRatio of the strongest wins, unless a comparably strong lag lies
// closer to the previous period. That preference lapses after
// octaveSwitchBlocks consecutive disagreements.
func (d *Detector) choose(keys []int) int {
	best := 0.0
	for _, k := range keys {
		best = math.Max(best, d.nsdf[k])
	}

	first := keys[0]
	for _, k := range keys {
		if d.nsdf[k] >= keyMaximumRatio*best {
			first = k
			break
		}
	}

	if d.prevLag <= 0 || d.cfg.continuity >= 1 {
		d.disagree = 0
		return first
	}

	chosen := first
	dist := math.Abs(math.Log(float64(first) / d.prevLag))
	for _, k := range keys {
		if d.nsdf[k] < d.cfg.continuity*best {
			continue
		}
		if dk := math.Abs(math.Log(float64(k) / d.prevLag)); dk < dist {
			chosen, dist = k, dk
		}
	}

	if chosen == first {
		d.disagree = 0
		return first
	}

	d.disagree++
	if d.disagree > octaveSwitchBlocks {
		d.disagree = 0
		return first
	}

	return chosen
}

// removeMean subtracts the mean of x in place and returns the remaining
// energy (sum of squares).
func removeMean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))

	energy := 0.0
	for i, v := range x {
		v -= mean
		x[i] = v
		energy += v * v
	}

	return energy
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
