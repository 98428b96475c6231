// Package jobs owns the in-memory job registry and its progress event bus.
//
// Store is the single writer for job records: every mutation goes through
// Update, which applies the change and produces the matching Event under the
// record's lock, then hands the event to each subscriber of that job. The
// subscriber set is copy-on-write, so delivery iterates an immutable snapshot
// while Subscribe and Unsubscribe swap in a new slice. Each Subscription keeps
// an unbounded queue drained by its own goroutine, so publishing never blocks
// and never drops.
//
// Stream wraps a Subscription with the idle timeout used by HTTP observers.
// Job state is process-local and intentionally not persisted.
package jobs
