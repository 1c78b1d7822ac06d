package tuner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	pitchshift "github.com/cwbudde/algo-vocal/dsp/effects/pitch"
	"github.com/cwbudde/algo-vocal/measure/formant"
	"github.com/cwbudde/algo-vocal/measure/pitch"
	"github.com/cwbudde/algo-vocal/stats/vocal"
	timestats "github.com/cwbudde/algo-vocal/stats/time"
)

// State is the controller lifecycle state.
type State string

const (
	// StateIdle means no capture stream is open.
	StateIdle State = "idle"
	// StateListening means blocks are being analysed.
	StateListening State = "listening"
)

// Controller runs a listening session: it opens the capture stream, feeds
// every block through the detector and aggregator, and exposes the
// results as snapshots.
type Controller struct {
	cfg config
	log *slog.Logger
	src Source

	detector *pitch.Detector
	formants *formant.Estimator
	metrics  *vocal.Aggregator
	shifter  *pitchshift.Shifter

	// Render-side hand-offs.
	listening       atomic.Bool
	resetDetector   atomic.Bool
	anomalies       atomic.Uint64
	reported        atomic.Uint64
	shifterReported atomic.Uint64
	targetHz        atomic.Uint64 // float64 bits, 0 without a target

	mu      sync.Mutex
	stream  Stream
	session uuid.UUID
}

// New creates an idle Controller reading from src.
func New(src Source, opts ...Option) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("tuner: source must not be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tuner: %w", err)
	}

	detOpts := append(cfg.detector,
		pitch.WithSampleRate(cfg.SampleRate),
		pitch.WithBlockSize(cfg.BlockSize),
	)
	detector, err := pitch.NewDetector(detOpts...)
	if err != nil {
		return nil, fmt.Errorf("tuner: detector: %w", err)
	}

	aggOpts := append(cfg.metrics, vocal.WithFramePeriod(cfg.BlockDuration()))
	metrics, err := vocal.NewAggregator(aggOpts...)
	if err != nil {
		return nil, fmt.Errorf("tuner: aggregator: %w", err)
	}

	c := &Controller{
		cfg:      cfg,
		log:      cfg.logger,
		src:      src,
		detector: detector,
		metrics:  metrics,
		shifter:  cfg.shifter,
	}

	if cfg.retune && cfg.shifter == nil {
		return nil, fmt.Errorf("tuner: retune needs a shifter")
	}

	if cfg.formants {
		fmtOpts := append(cfg.formant,
			formant.WithSampleRate(cfg.SampleRate),
			formant.WithSize(cfg.BlockSize),
		)
		c.formants, err = formant.NewEstimator(fmtOpts...)
		if err != nil {
			return nil, fmt.Errorf("tuner: formants: %w", err)
		}
	}

	return c, nil
}

// Start opens the capture stream and begins a new session. Metrics from
// the previous session are cleared, the shifter's read phase is reset and a
// new session id is assigned.
// Starting while listening is a no-op.
//
// Acquisition failures are returned as *CaptureError and leave the
// controller idle.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return nil
	}

	// No stream is open, so the render side is quiet. The id goes in
	// first so the cleared snapshot already carries it.
	c.session = uuid.New()
	c.metrics.SetSessionID(c.session)

	c.detector.Reset()
	c.metrics.ResetNow()
	c.resetDetector.Store(false)
	if c.shifter != nil {
		c.shifter.Reset()
	}

	c.listening.Store(true)

	stream, err := c.src.Open(StreamConfig{
		SampleRate: c.cfg.SampleRate,
		BlockSize:  c.cfg.BlockSize,
	}, c.ProcessBlock)
	if err != nil {
		c.listening.Store(false)

		var ce *CaptureError
		if !errors.As(err, &ce) {
			ce = NewCaptureError(OpOpen, sourceName(c.src), err)
		}
		c.log.Error("failed to start listening", "device", ce.Device, "error", ce.Err)

		return ce
	}

	c.stream = stream
	c.log.Info("listening started",
		"session", c.session,
		"sample_rate", c.cfg.SampleRate,
		"block_size", c.cfg.BlockSize)

	return nil
}

// Stop closes the capture stream. The last snapshot stays available.
// Stopping while idle is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	c.listening.Store(false)
	err := c.stream.Close()
	c.stream = nil

	c.reportAnomalies()

	snap := c.metrics.Snapshot()
	c.log.Info("listening stopped",
		"session", c.session,
		"duration", snap.Session.Duration,
		"accuracy", snap.Session.AccuracyScore,
		"notes_hit", snap.Session.NotesHit.Len())

	if err != nil {
		return NewCaptureError(OpClose, sourceName(c.src), err)
	}

	return nil
}

// Toggle starts an idle controller and stops a listening one.
func (c *Controller) Toggle() error {
	if c.State() == StateListening {
		return c.Stop()
	}
	return c.Start()
}

// Reset clears metrics mid-session without touching the stream. The next
// snapshot already reports zeroed metrics.
func (c *Controller) Reset() error {
	if !c.listening.Load() {
		return ErrNotListening
	}

	c.metrics.Reset()
	c.resetDetector.Store(true)
	c.log.Debug("session metrics reset", "session", c.SessionID())

	return nil
}

// SetShiftFactor sets the backing-track shift factor, clamped to
// [pitchshift.MinFactor, pitchshift.MaxFactor]. Without a shifter it does
// nothing.
func (c *Controller) SetShiftFactor(v float64) {
	if c.shifter == nil {
		return
	}
	c.shifter.SetFactor(v)
}

// ShiftFactor returns the current shift factor, or 1 without a shifter.
func (c *Controller) ShiftFactor() float64 {
	if c.shifter == nil {
		return 1
	}
	return c.shifter.Factor()
}

// SetTarget switches the aggregator to exercise mode with a fixed target.
func (c *Controller) SetTarget(n pitch.Note) {
	c.targetHz.Store(math.Float64bits(n.Frequency(c.detector.Reference())))
	c.metrics.SetTarget(n)
}

// ClearTarget switches the aggregator back to free tuning. A retuning
// controller leaves the shift factor where it was.
func (c *Controller) ClearTarget() {
	c.targetHz.Store(0)
	c.metrics.ClearTarget()
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	if c.listening.Load() {
		return StateListening
	}
	return StateIdle
}

// SessionID returns the id of the current or last session.
func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Snapshot returns the latest published metrics.
func (c *Controller) Snapshot() vocal.Snapshot {
	c.reportAnomalies()
	return c.metrics.Snapshot()
}

// Anomalies returns how many blocks of the wrong length were dropped.
func (c *Controller) Anomalies() uint64 {
	return c.anomalies.Load()
}

// ProcessBlock analyses one captured block. It is the BlockFunc handed to
// the source and never blocks or allocates. Blocks arriving while idle are
// ignored; blocks of the wrong length are dropped and counted.
func (c *Controller) ProcessBlock(block []float64) {
	if !c.listening.Load() {
		return
	}

	if len(block) != c.cfg.BlockSize {
		c.anomalies.Add(1)
		return
	}

	if c.resetDetector.CompareAndSwap(true, false) {
		c.detector.Reset()
	}

	est := c.detector.Detect(block)

	if c.formants != nil {
		var f formant.Estimate
		if est.Voiced {
			f = c.formants.Estimate(block)
		}
		c.metrics.SetFormant(f)
	}

	if c.cfg.retune && est.Voiced {
		if target := math.Float64frombits(c.targetHz.Load()); target > 0 {
			c.shifter.SetFactor(pitchshift.FactorToTarget(est.Frequency, target))
		}
	}

	lvl := timestats.Measure(block)
	c.metrics.SetPeak(lvl.Peak)
	c.metrics.Update(est, lvl.RMS)
}

// reportAnomalies logs newly counted render anomalies once, for the
// capture path and the backing-track shifter.
func (c *Controller) reportAnomalies() {
	if n, total, ok := advance(&c.reported, c.anomalies.Load()); ok {
		c.log.Warn("dropped malformed capture blocks",
			"new", n,
			"total", total,
			"expected_length", c.cfg.BlockSize)
	}

	if c.shifter == nil {
		return
	}
	if n, total, ok := advance(&c.shifterReported, c.shifter.Anomalies()); ok {
		c.log.Warn("passed through malformed backing blocks",
			"new", n,
			"total", total,
			"expected_length", c.shifter.BlockSize())
	}
}

// advance moves the watermark to total and reports the increase. Only one
// caller wins a given increase.
func advance(mark *atomic.Uint64, total uint64) (n, now uint64, ok bool) {
	seen := mark.Load()
	if total == seen || !mark.CompareAndSwap(seen, total) {
		return 0, total, false
	}
	return total - seen, total, true
}
