package vocal

import (
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-vocal/measure/formant"
	"github.com/cwbudde/algo-vocal/measure/pitch"
)

// frame is one voiced window entry.
type frame struct {
	pitch float64 // fractional MIDI note
	cents float64 // deviation from the nearest note
}

// Aggregator turns per-block estimates into rolling metrics.
//
// Update, SetFormant, SetPeak and ResetNow belong to the render side and must
// not be called concurrently with each other. Snapshot, Reset, SetTarget,
// ClearTarget and SetSessionID may be called from any goroutine.
type Aggregator struct {
	cfg config

	frames []frame
	head   int // next write position
	count  int
	run    int // consecutive voiced ticks

	sorted []float64
	series [vibratoFrames]float64

	minVibratoLag int
	maxVibratoLag int

	volume  *VolumeMeter
	formant formant.Estimate
	peak    float64
	session SessionStats

	holdNote int
	holdTime time.Duration

	target    atomic.Pointer[pitch.Note]
	sessionID atomic.Pointer[uuid.UUID]

	resetGen   atomic.Uint64
	appliedGen uint64

	snap *snapshotBuffer
	next Snapshot
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts ...Option) (*Aggregator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	capacity := int(math.Ceil(float64(cfg.window) / float64(cfg.framePeriod)))
	capacity = max(capacity, 1)

	frameRate := 1 / cfg.framePeriod.Seconds()

	a := &Aggregator{
		cfg:           cfg,
		frames:        make([]frame, capacity),
		sorted:        make([]float64, 0, capacity),
		minVibratoLag: max(1, int(math.Floor(frameRate/cfg.vibratoHigh))),
		maxVibratoLag: int(math.Ceil(frameRate / cfg.vibratoLow)),
		volume:        NewVolumeMeter(cfg.framePeriod, cfg.volumeTau),
		holdNote:      -1,
		snap:          newSnapshotBuffer(),
	}

	return a, nil
}

// FramePeriod returns the duration of one Update tick.
func (a *Aggregator) FramePeriod() time.Duration { return a.cfg.framePeriod }

// SetTarget switches to exercise mode with a fixed target note.
func (a *Aggregator) SetTarget(n pitch.Note) {
	a.target.Store(&n)
}

// ClearTarget switches to free-tuning mode, where the window median is the
// target.
func (a *Aggregator) ClearTarget() {
	a.target.Store(nil)
}

// SetSessionID sets the id reported in SessionStats from the next tick on.
func (a *Aggregator) SetSessionID(id uuid.UUID) {
	a.sessionID.Store(&id)
}

// SetFormant attaches a formant estimate to the next published snapshot.
func (a *Aggregator) SetFormant(f formant.Estimate) {
	a.formant = f
}

// SetPeak supplies the peak absolute amplitude of the block passed to the
// next Update. It is consumed by that Update.
func (a *Aggregator) SetPeak(peak float64) {
	a.peak = peak
}

// Reset requests that the window and all derived metrics be cleared. The
// render side applies the request on its next Update; Snapshot reports
// zeroed metrics from the moment Reset returns.
func (a *Aggregator) Reset() {
	a.resetGen.Add(1)
}

// ResetNow clears all state immediately, including the volume meter, and
// publishes an empty snapshot. It must only be used while no Update call is
// in flight, e.g. before a session starts.
func (a *Aggregator) ResetNow() {
	gen := a.resetGen.Add(1)
	a.clear()
	a.volume.Reset()
	a.formant = formant.Estimate{}
	a.peak = 0
	a.appliedGen = gen

	a.next = Snapshot{Generation: gen}
	if id := a.sessionID.Load(); id != nil {
		a.next.Session.ID = *id
	}
	a.snap.publish(&a.next)
}

// Snapshot returns the latest published state without waiting for the
// render side.
func (a *Aggregator) Snapshot() Snapshot {
	s := a.snap.load()

	gen := a.resetGen.Load()
	if s.Generation != gen {
		// A reset is pending: keep the live readings, drop the metrics.
		s.Stability = StabilityMetrics{}
		s.Vibrato = VibratoMetrics{}
		s.Session = SessionStats{ID: s.Session.ID}
		s.Target = pitch.Note{}
		s.TargetFixed = false
		s.Generation = gen
	}

	return s
}

// Update consumes one block's estimate and RMS level and publishes a new
// snapshot. It does not allocate.
func (a *Aggregator) Update(est pitch.Estimate, blockRMS float64) {
	if gen := a.resetGen.Load(); gen != a.appliedGen {
		a.clear()
		a.appliedGen = gen
	}

	s := &a.next
	s.Generation = a.appliedGen
	s.Estimate = est
	s.Volume = a.volume.UpdatePeak(blockRMS, a.peak)
	a.peak = 0
	s.Formant = a.formant

	a.session.Duration += a.cfg.framePeriod
	if id := a.sessionID.Load(); id != nil {
		a.session.ID = *id
	}

	target := a.target.Load()

	if est.Voiced {
		a.push(frame{
			pitch: float64(est.Note.MIDI) + est.Cents/100,
			cents: est.Cents,
		})
		a.run++
		a.trackNote(est, target)
	} else {
		a.run = 0
		a.holdNote = -1
		a.holdTime = 0
	}

	s.Stability, s.Target = a.stability(target)
	s.TargetFixed = target != nil && a.count > 0
	s.Vibrato = a.vibrato()

	a.session.AccuracyScore = a.accuracy(s.Stability.PitchConsistency)
	s.Session = a.session

	a.snap.publish(s)
}

func (a *Aggregator) clear() {
	a.head = 0
	a.count = 0
	a.run = 0
	a.holdNote = -1
	a.holdTime = 0
	a.session = SessionStats{}
}

func (a *Aggregator) push(f frame) {
	a.frames[a.head] = f
	a.head++
	if a.head == len(a.frames) {
		a.head = 0
	}
	if a.count < len(a.frames) {
		a.count++
	}
}

// at returns the i-th most recent frame, 0 being the newest.
func (a *Aggregator) at(i int) frame {
	idx := a.head - 1 - i
	if idx < 0 {
		idx += len(a.frames)
	}
	return a.frames[idx]
}

// trackNote updates in-tune time and the note-hold timer for a voiced
// frame.
func (a *Aggregator) trackNote(est pitch.Estimate, target *pitch.Note) {
	period := a.cfg.framePeriod
	a.session.VoicedTime += period

	note := est.Note.MIDI
	errCents := est.Cents
	if target != nil {
		note = target.MIDI
		errCents = 100 * (float64(est.Note.MIDI-target.MIDI) + est.Cents/100)
	}

	if math.Abs(errCents) > a.cfg.tolerance {
		a.holdNote = -1
		a.holdTime = 0
		return
	}

	a.session.InTuneTime += period

	if note == a.holdNote {
		a.holdTime += period
	} else {
		a.holdNote = note
		a.holdTime = period
	}

	if a.holdTime >= a.cfg.sustain {
		a.session.NotesHit.Add(note)
	}
}

// stability computes consistency and deviation over the window. In free
// mode the target is the window median and the deviation is measured
// against the nearest note of each frame.
func (a *Aggregator) stability(target *pitch.Note) (StabilityMetrics, pitch.Note) {
	if a.count == 0 {
		return StabilityMetrics{}, pitch.Note{}
	}

	var ref float64
	var note pitch.Note
	if target != nil {
		ref = float64(target.MIDI)
		note = *target
	} else {
		ref = a.median()
		note = pitch.NoteFromMIDI(int(math.Round(ref)))
	}

	within := 0
	devSum := 0.0
	for i := 0; i < a.count; i++ {
		f := a.frames[i]
		errCents := 100 * (f.pitch - ref)
		if math.Abs(errCents) <= a.cfg.tolerance {
			within++
		}
		if target != nil {
			devSum += math.Abs(errCents)
		} else {
			devSum += math.Abs(f.cents)
		}
	}

	n := float64(a.count)

	return StabilityMetrics{
		PitchConsistency: 100 * float64(within) / n,
		AverageDeviation: devSum / n,
	}, note
}

func (a *Aggregator) median() float64 {
	s := a.sorted[:0]
	for i := 0; i < a.count; i++ {
		s = append(s, a.frames[i].pitch)
	}
	slices.Sort(s)
	a.sorted = s

	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

// vibrato looks for a dominant oscillation of the most recent contiguous
// voiced frames. The series is detrended and its normalized
// autocorrelation searched over the lags of the vibrato band.
func (a *Aggregator) vibrato() VibratoMetrics {
	n := min(a.run, a.count, vibratoFrames)
	if n < 2*a.maxVibratoLag+2 {
		return VibratoMetrics{}
	}

	y := a.series[:n]
	for i := range y {
		// Oldest first.
		y[i] = 100 * a.at(n-1-i).pitch
	}

	detrend(y)

	r0 := 0.0
	for _, v := range y {
		r0 += v * v
	}
	if r0 <= 0 {
		return VibratoMetrics{}
	}

	lo := max(1, a.minVibratoLag-1)
	hi := min(n-1, a.maxVibratoLag+1)

	bestLag := -1
	bestR := vibratoMinCorrelation
	prev := autocorr(y, lo, r0)
	cur := autocorr(y, lo+1, r0)
	for lag := lo + 1; lag < hi; lag++ {
		next := autocorr(y, lag+1, r0)
		if cur >= prev && cur >= next && cur >= bestR &&
			lag >= a.minVibratoLag && lag <= a.maxVibratoLag {
			bestLag, bestR = lag, cur
		}
		prev, cur = cur, next
	}

	if bestLag < 0 {
		return VibratoMetrics{}
	}

	// Parabolic refinement of the period.
	rm := autocorr(y, bestLag-1, r0)
	rp := autocorr(y, bestLag+1, r0)
	period := float64(bestLag)
	if den := rm - 2*bestR + rp; den != 0 {
		period += 0.5 * (rm - rp) / den
	}

	rate := 1 / (period * a.cfg.framePeriod.Seconds())
	depth := math.Sqrt2 * math.Sqrt(r0/float64(n))

	if rate < a.cfg.vibratoLow || rate > a.cfg.vibratoHigh || depth < a.cfg.vibratoMinDepth {
		return VibratoMetrics{}
	}

	return VibratoMetrics{Detected: true, Rate: rate, Depth: depth}
}

func (a *Aggregator) accuracy(consistency float64) float64 {
	if a.session.VoicedTime <= 0 {
		return 0
	}
	inTune := 100 * float64(a.session.InTuneTime) / float64(a.session.VoicedTime)
	return a.cfg.weightStable*consistency + a.cfg.weightInTune*inTune
}

// autocorr returns the unbiased autocorrelation of y at lag, normalized by
// the zero-lag energy r0.
func autocorr(y []float64, lag int, r0 float64) float64 {
	n := len(y)
	if lag <= 0 || lag >= n {
		return 1
	}
	sum := 0.0
	for i := 0; i+lag < n; i++ {
		sum += y[i] * y[i+lag]
	}
	return sum / r0 * float64(n) / float64(n-lag)
}

// detrend removes the least-squares line from y in place.
func detrend(y []float64) {
	n := float64(len(y))
	if n < 2 {
		return
	}

	// x is centered: x_i = i - (n-1)/2, so sum(x) = 0.
	xm := (n - 1) / 2
	var sy, sxy, sxx float64
	for i, v := range y {
		x := float64(i) - xm
		sy += v
		sxy += x * v
		sxx += x * x
	}

	mean := sy / n
	slope := sxy / sxx
	for i := range y {
		y[i] -= mean + slope*(float64(i)-xm)
	}
}
