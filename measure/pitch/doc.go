// Package pitch estimates the fundamental frequency of monophonic voice
// blocks and maps it onto equal-tempered notes.
//
// [Detector] implements the McLeod normalized square difference function
// (NSDF). The autocorrelation term is computed with an FFT, so a block of N
// samples costs O(N log N). Peak picking uses key maxima between
// positive-going zero crossings and a continuity bias toward the previous
// accepted period to suppress octave jumps.
//
// Detection never fails: silence, noise and unvoiced consonants produce an
// [Estimate] with Voiced == false.
package pitch
