package tracker

import (
	"fmt"
	"strings"
)

// State is a tracker's position in its session lifecycle.
type State int

// Tracker states. Complete, Failed and Disposed are terminal.
const (
	StateIdle State = iota
	StateActive
	StateComplete
	StateFailed
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateDisposed
}

// RegressionPolicy decides how an overall value lower than one already seen
// is rendered.
type RegressionPolicy int

const (
	// PolicyClamp keeps the bar at the highest value seen so far.
	PolicyClamp RegressionPolicy = iota
	// PolicyTrust renders every value as received.
	PolicyTrust
)

func (p RegressionPolicy) String() string {
	if p == PolicyTrust {
		return "trust"
	}
	return "clamp"
}

// ParseRegressionPolicy maps a configuration value onto a policy. The empty
// string selects PolicyClamp.
func ParseRegressionPolicy(s string) (RegressionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return PolicyClamp, nil
	case "trust":
		return PolicyTrust, nil
	default:
		return PolicyClamp, fmt.Errorf("unknown regression policy %q", s)
	}
}
