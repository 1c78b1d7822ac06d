package vocal

import (
	"math"
	"time"

	"github.com/cwbudde/algo-vocal/dsp/core"
)

// MinVolumeDB is the level that maps to 0 percent.
const MinVolumeDB = -60.0

// VolumeLevel holds the current, averaged and peak input level in percent.
type VolumeLevel struct {
	Current float64
	Average float64
	Peak    float64 // block peak amplitude, never below Current
}

// LevelPercent maps an RMS amplitude to 0..100 percent over
// [MinVolumeDB, 0] dBFS.
func LevelPercent(rms float64) float64 {
	if !(rms > 0) {
		return 0
	}
	db := core.LinearToDB(rms)
	return 100 * core.Clamp((db-MinVolumeDB)/-MinVolumeDB, 0, 1)
}

// VolumeMeter converts per-block RMS values into a VolumeLevel with an
// exponentially averaged companion value.
type VolumeMeter struct {
	alpha  float64
	level  VolumeLevel
	primed bool
}

// NewVolumeMeter returns a meter updated every framePeriod whose average
// follows with time constant tau.
func NewVolumeMeter(framePeriod, tau time.Duration) *VolumeMeter {
	alpha := 1.0
	if tau > 0 && framePeriod > 0 {
		alpha = 1 - math.Exp(-framePeriod.Seconds()/tau.Seconds())
	}
	return &VolumeMeter{alpha: alpha}
}

// Update feeds one block RMS and returns the new level. Peak follows the
// RMS level.
func (m *VolumeMeter) Update(rms float64) VolumeLevel {
	return m.UpdatePeak(rms, rms)
}

// UpdatePeak feeds one block RMS together with its peak absolute amplitude.
func (m *VolumeMeter) UpdatePeak(rms, peak float64) VolumeLevel {
	cur := LevelPercent(rms)
	m.level.Current = cur
	m.level.Peak = max(LevelPercent(peak), cur)
	if !m.primed {
		m.level.Average = cur
		m.primed = true
	} else {
		m.level.Average += m.alpha * (cur - m.level.Average)
	}
	return m.level
}

// Level returns the last computed level.
func (m *VolumeMeter) Level() VolumeLevel { return m.level }

// Reset returns the meter to zero.
func (m *VolumeMeter) Reset() {
	m.level = VolumeLevel{}
	m.primed = false
}
