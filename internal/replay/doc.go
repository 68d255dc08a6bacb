// Package replay serves recorded progress snapshots over SSE so the watcher
// can be developed and tested without a conversion pipeline. It replays
// fixture files; it never computes progress.
package replay
