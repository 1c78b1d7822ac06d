package vocal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-vocal/measure/formant"
	"github.com/cwbudde/algo-vocal/measure/pitch"
)

// StabilityMetrics describes how steadily the window's pitch sits on its
// target.
type StabilityMetrics struct {
	// PitchConsistency is the percentage of window frames within the
	// tolerance band of the target.
	PitchConsistency float64
	// AverageDeviation is the mean absolute error in cents.
	AverageDeviation float64
}

// VibratoMetrics describes a periodic pitch oscillation.
type VibratoMetrics struct {
	Detected bool
	Rate     float64 // Hz
	Depth    float64 // cents, half the peak-to-peak excursion
}

// SessionStats accumulates over one listening session.
type SessionStats struct {
	ID            uuid.UUID
	Duration      time.Duration
	VoicedTime    time.Duration
	InTuneTime    time.Duration
	NotesHit      NoteSet
	AccuracyScore float64
}

// Snapshot is the published state after one tick. It is a plain value and
// may be copied freely.
type Snapshot struct {
	Estimate  pitch.Estimate
	Volume    VolumeLevel
	Stability StabilityMetrics
	Vibrato   VibratoMetrics
	Formant   formant.Estimate
	Session   SessionStats

	// Target is the fixed exercise note when TargetFixed is set, otherwise
	// the note nearest the window median. Zero when the window is empty.
	Target      pitch.Note
	TargetFixed bool

	// Generation counts resets; a snapshot from an older generation is
	// never returned.
	Generation uint64
}

const freshBit = 1 << 2

// snapshotBuffer is a single-writer triple buffer. The writer owns one slot,
// the readers one, and the third is exchanged atomically together with a
// flag telling readers that it holds a newer value.
type snapshotBuffer struct {
	slots  [3]Snapshot
	middle atomic.Uint32
	back   uint32

	mu    sync.Mutex
	front uint32
}

func newSnapshotBuffer() *snapshotBuffer {
	b := &snapshotBuffer{front: 0, back: 2}
	b.middle.Store(1)
	return b
}

// publish stores s as the latest value. Writer side only.
func (b *snapshotBuffer) publish(s *Snapshot) {
	b.slots[b.back] = *s
	prev := b.middle.Swap(b.back | freshBit)
	b.back = prev &^ freshBit
}

// load returns the latest published value.
func (b *snapshotBuffer) load() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.middle.Load()&freshBit != 0 {
		prev := b.middle.Swap(b.front)
		b.front = prev &^ freshBit
	}

	return b.slots[b.front]
}
