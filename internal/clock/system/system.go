// Package system provides the wall-clock implementation of tracker.Clock.
package system

import "time"

// Clock reads time from the operating system.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// After fires once after d.
func (Clock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
