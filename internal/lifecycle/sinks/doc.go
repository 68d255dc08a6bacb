// Package sinks implements lifecycle consumers: structured logging,
// Prometheus collectors, and the session audit store. Each satisfies
// lifecycle.Sink.
package sinks
