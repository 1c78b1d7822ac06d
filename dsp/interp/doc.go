// Package interp provides fractional-position interpolation primitives used
// by the pitch shifter's read heads.
//
// [Linear2] interpolates between two samples; [RingLinear] applies it to a
// circular buffer, wrapping indices modulo the buffer length.
package interp
