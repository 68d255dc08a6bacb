// Package progress defines the snapshot model carried by a conversion job's
// progress stream: the overall percentage, elapsed time, and the ordered list
// of steps with their substeps. Decode is the single entry point for turning a
// raw stream payload into a validated Snapshot.
package progress
