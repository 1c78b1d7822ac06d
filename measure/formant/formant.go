// Package formant gives a coarse vowel estimate from the spectral envelope
// of a voiced block.
//
// The estimate is best-effort: the first two formants are taken as the
// strongest harmonic peaks of a lightly smoothed magnitude spectrum in the
// F1 and F2 regions and matched against average adult vowel formants. It is meant for
// feedback displays, not phonetic analysis.
package formant

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-vocal/dsp/core"
	"github.com/cwbudde/algo-vocal/dsp/spectrum"
	"github.com/cwbudde/algo-vocal/dsp/window"
	frequencystats "github.com/cwbudde/algo-vocal/stats/frequency"
	timestats "github.com/cwbudde/algo-vocal/stats/time"
)

// Vowel is a coarse vowel class.
type Vowel uint8

const (
	VowelUnknown Vowel = iota
	VowelA
	VowelE
	VowelI
	VowelO
	VowelU
)

var vowelNames = [...]string{"?", "a", "e", "i", "o", "u"}

// String returns the vowel letter, or "?" when unknown.
func (v Vowel) String() string {
	if int(v) < len(vowelNames) {
		return vowelNames[v]
	}
	return "?"
}

// Reference F1/F2 pairs in Hz (adult average).
var vowelFormants = [...]struct {
	vowel  Vowel
	f1, f2 float64
}{
	{VowelA, 730, 1090},
	{VowelE, 530, 1840},
	{VowelI, 270, 2290},
	{VowelO, 570, 840},
	{VowelU, 300, 870},
}

const (
	f1Low  = 200.0
	f1High = 1000.0
	f2High = 3000.0
	// f2Gap is the minimum spacing between F1 and F2.
	f2Gap = 200.0

	// maxVowelDistance bounds the squared log-frequency distance to the
	// nearest reference vowel.
	maxVowelDistance = 0.25
)

// Estimate is a formant analysis result. When Valid is false the block was
// silent, noisy or had no clear F1/F2 structure.
type Estimate struct {
	F1       float64
	F2       float64
	Vowel    Vowel
	Centroid float64
	Valid    bool
}

// Option configures an [Estimator].
type Option func(*config) error

type config struct {
	sampleRate   float64
	size         int
	smoothingHz  float64
	maxFlatness  float64
	silenceFloor float64
}

// WithSampleRate sets the sample rate in Hz (default 44100).
func WithSampleRate(sr float64) Option {
	return func(c *config) error {
		if !core.IsFinitePositive(sr) {
			return fmt.Errorf("formant: sample rate must be positive and finite: %f", sr)
		}
		c.sampleRate = sr
		return nil
	}
}

// WithSize sets the analysis block length (default 1024). The FFT size is
// the next power of two.
func WithSize(n int) Option {
	return func(c *config) error {
		if n < 256 {
			return fmt.Errorf("formant: size must be >= 256: %d", n)
		}
		c.size = n
		return nil
	}
}

// WithSmoothing sets the magnitude smoothing half width in Hz (default 50).
// It must stay below half the lowest expected fundamental so that
// neighbouring harmonics remain separate peaks.
func WithSmoothing(hz float64) Option {
	return func(c *config) error {
		if !core.IsFinitePositive(hz) {
			return fmt.Errorf("formant: smoothing must be positive and finite: %f", hz)
		}
		c.smoothingHz = hz
		return nil
	}
}

// WithMaxFlatness sets the spectral flatness above which a block is treated
// as noise (default 0.5).
func WithMaxFlatness(f float64) Option {
	return func(c *config) error {
		if !(f > 0 && f <= 1) {
			return fmt.Errorf("formant: max flatness must be in (0, 1]: %f", f)
		}
		c.maxFlatness = f
		return nil
	}
}

// Estimator computes formant estimates without allocating.
type Estimator struct {
	cfg    config
	binHz  float64
	smooth int

	plan     *algofft.Plan[complex128]
	win      []float64
	samples  []float64
	frame    []complex128
	spec     []complex128
	re, im   []float64
	mag, env []float64
}

// NewEstimator creates an Estimator.
func NewEstimator(opts ...Option) (*Estimator, error) {
	cfg := config{
		sampleRate:   44100,
		size:         1024,
		smoothingHz:  50,
		maxFlatness:  0.5,
		silenceFloor: 0.005,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.sampleRate/2 <= f2High {
		return nil, fmt.Errorf("formant: sample rate %f too low for F2 search up to %f Hz", cfg.sampleRate, f2High)
	}

	fftSize := 1
	for fftSize < cfg.size {
		fftSize <<= 1
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("formant: fft plan: %w", err)
	}

	win, err := window.Hann(fftSize, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("formant: %w", err)
	}

	half := fftSize/2 + 1
	binHz := spectrum.BinFrequency(1, fftSize, cfg.sampleRate)

	return &Estimator{
		cfg:     cfg,
		binHz:   binHz,
		smooth:  max(1, int(math.Round(cfg.smoothingHz/binHz))),
		plan:    plan,
		win:     win,
		samples: make([]float64, fftSize),
		frame:   make([]complex128, fftSize),
		spec:    make([]complex128, fftSize),
		re:      make([]float64, half),
		im:      make([]float64, half),
		mag:     make([]float64, half),
		env:     make([]float64, half),
	}, nil
}

// Estimate analyses one block. Blocks longer than the FFT size are
// truncated, shorter ones zero padded.
func (e *Estimator) Estimate(block []float64) Estimate {
	if timestats.RMS(block) < e.cfg.silenceFloor {
		return Estimate{}
	}

	core.CopyInto(e.samples, block)
	if err := window.ApplyCoefficientsInPlace(e.samples, e.win); err != nil {
		return Estimate{}
	}

	for i, v := range e.samples {
		e.frame[i] = complex(v, 0)
	}

	if err := e.plan.Forward(e.spec, e.frame); err != nil {
		return Estimate{}
	}

	half := len(e.mag)
	spectrum.SplitComplex(e.re, e.im, e.spec[:half])
	spectrum.MagnitudeFromParts(e.mag, e.re, e.im)

	if frequencystats.Flatness(e.mag) > e.cfg.maxFlatness {
		return Estimate{}
	}

	spectrum.SmoothTo(e.env, e.mag, e.smooth)

	f1 := e.peakIn(f1Low, f1High)
	if f1 == 0 {
		return Estimate{}
	}

	f2 := e.peakIn(math.Max(f1+f2Gap, 600), f2High)
	if f2 == 0 {
		return Estimate{}
	}

	return Estimate{
		F1:       f1,
		F2:       f2,
		Vowel:    Classify(f1, f2),
		Centroid: frequencystats.Centroid(e.mag, e.cfg.sampleRate),
		Valid:    true,
	}
}

// peakIn returns the frequency of the highest local maximum of the
// smoothed magnitude in [loHz, hiHz], or 0 when there is none.
func (e *Estimator) peakIn(loHz, hiHz float64) float64 {
	lo := max(1, int(math.Ceil(loHz/e.binHz)))
	hi := min(len(e.env)-2, int(math.Floor(hiHz/e.binHz)))

	best := -1
	for i := lo; i <= hi; i++ {
		v := e.env[i]
		if v < e.env[i-1] || v < e.env[i+1] {
			continue
		}
		if best < 0 || v > e.env[best] {
			best = i
		}
	}

	if best < 0 || e.env[best] <= 0 {
		return 0
	}

	off, _ := spectrum.ParabolicPeak(e.env, best)

	return (float64(best) + off) * e.binHz
}

// Classify returns the reference vowel nearest to the formant pair, or
// VowelUnknown when none is close.
func Classify(f1, f2 float64) Vowel {
	if f1 <= 0 || f2 <= 0 {
		return VowelUnknown
	}

	best := VowelUnknown
	bestDist := maxVowelDistance
	for _, ref := range vowelFormants {
		d1 := math.Log(f1 / ref.f1)
		d2 := math.Log(f2 / ref.f2)
		if d := d1*d1 + d2*d2; d < bestDist {
			best, bestDist = ref.vowel, d
		}
	}

	return best
}
