// Package spectrum provides FFT-adjacent helpers for one-sided spectra.
//
// The package does not implement the FFT itself. It converts split
// real/imaginary bins to magnitude or power, smooths envelopes, and refines
// peak positions. Every function writes into caller-owned slices so it can
// run on the audio render path.
package spectrum
