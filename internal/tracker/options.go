package tracker

import (
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
)

// DefaultNavigationDelay is how long the completion banner stays up before
// the tracker hands off to the result view.
const DefaultNavigationDelay = 2000 * time.Millisecond

// Option customizes a Tracker.
type Option func(*Tracker)

// WithSource sets the stream source. Start fails without one.
func WithSource(src Source) Option {
	return func(t *Tracker) {
		t.source = src
	}
}

// WithNavigator sets where the completed session is handed off.
func WithNavigator(nav Navigator) Option {
	return func(t *Tracker) {
		t.navigator = nav
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithEmitter publishes lifecycle events, typically to a lifecycle.Hub.
func WithEmitter(e lifecycle.Emitter) Option {
	return func(t *Tracker) {
		if e != nil {
			t.emitter = e
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithPageURL sets the host page URL whose query carries the result filename.
func WithPageURL(u *url.URL) Option {
	return func(t *Tracker) {
		t.pageURL = u
	}
}

// WithNavigationDelay overrides DefaultNavigationDelay. Negative values are
// treated as zero.
func WithNavigationDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d < 0 {
			d = 0
		}
		t.navDelay = d
	}
}

// WithRegressionPolicy selects how regressing overall values render.
func WithRegressionPolicy(p RegressionPolicy) Option {
	return func(t *Tracker) {
		t.policy = p
	}
}

// WithID fixes the tracker id instead of generating a UUIDv7.
func WithID(id [16]byte) Option {
	return func(t *Tracker) {
		if id != [16]byte{} {
			t.id = id
		}
	}
}
