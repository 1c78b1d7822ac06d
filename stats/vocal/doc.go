// Package vocal aggregates per-block pitch estimates into the rolling
// metrics shown to a singer: pitch stability, vibrato, volume and session
// accuracy.
//
// An [Aggregator] is fed once per audio block from the render path and
// publishes an immutable [Snapshot] after every tick. Readers pull the latest
// snapshot at their own pace. Update never blocks or allocates; control
// operations (target selection, reset) are atomic hand-offs.
//
// Only voiced frames enter the rolling window, so silence leaves the
// stability figures untouched while the volume meter falls.
package vocal
