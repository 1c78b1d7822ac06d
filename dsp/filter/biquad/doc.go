// Package biquad provides the second-order IIR section used to strip
// rumble and DC from microphone blocks before periodicity analysis.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficient design lives
// in dsp/filter/design.
package biquad
