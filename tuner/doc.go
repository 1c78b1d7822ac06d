// Package tuner drives live vocal analysis from a capture source.
//
// A [Controller] owns a pitch detector, a metrics aggregator and, when
// configured, a formant estimator and a backing-track shifter. The capture
// [Source] calls [Controller.ProcessBlock] from its real-time context; all
// other methods form the control surface and may be called from any
// goroutine. The two sides only share atomics, so a slow caller can never
// stall the audio callback.
package tuner
