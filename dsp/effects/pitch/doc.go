// Package pitch provides a real-time, block-based pitch shifter for backing
// tracks.
//
// [Shifter] is a time-domain approximation: it changes pitch by reading
// its input at a different rate and does not preserve formants. Artifacts
// grow as the factor approaches the [MinFactor] and [MaxFactor] bounds.
// Two read strategies are available:
//   - ModeResample: continuous-phase resampling read over the current block.
//   - ModeOverlapAdd: four Hann-weighted read heads over a delay line four
//     blocks long.
//
// ProcessBlock and ProcessVarying never allocate, block or panic; the
// factor can be changed concurrently from any goroutine.
package pitch
