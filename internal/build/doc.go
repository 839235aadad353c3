// Package build is the incremental rebuild engine.
//
// Make visits a node at most once per run. On the first visit it caches the
// target's timestamp, recurses into every source, and runs the node's action
// only if the target is older than its newest source. After a real build it
// re-reads the timestamps and checks that the step touched exactly what it
// should have:
//
//   - no source timestamp moved,
//   - the target timestamp advanced,
//   - the target is not stamped in the future,
//   - the target is not older than its newest source.
//
// A violation means the build description itself is wrong, so it aborts the
// run even under keep-going.
package build
