// Package lifecycle carries telemetry about progress trackers: when a session
// starts, each snapshot it renders, and how it ends. Trackers publish Events
// through an Emitter; the Hub batches them on a background goroutine and fans
// them out to sinks (structured logs, Prometheus, the session store) without
// ever blocking the tracker's run loop.
package lifecycle
