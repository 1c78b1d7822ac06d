// Package device provides tuner sources backed by real audio: live capture
// through miniaudio (malgo) and decoded WAV or MP3 files (beep).
//
// Both sources deliver fixed-size mono float64 blocks to the tuner's
// BlockFunc regardless of the period size the driver or decoder uses.
package device
