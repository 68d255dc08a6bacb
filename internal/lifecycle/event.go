package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes which point of a tracker session an Event describes.
type Stage string

// Supported lifecycle stages.
const (
	StageStart    Stage = "SESSION_START"
	StageSnapshot Stage = "SNAPSHOT"
	StageComplete Stage = "SESSION_COMPLETE"
	StageFailed   Stage = "SESSION_FAILED"
	StageDisposed Stage = "SESSION_DISPOSED"
)

// Terminal reports whether the stage ends a session.
func (s Stage) Terminal() bool {
	switch s {
	case StageComplete, StageFailed, StageDisposed:
		return true
	default:
		return false
	}
}

// Event captures one observation about a tracker session.
type Event struct {
	// TrackerID identifies the tracker instance (UUIDv7 bytes). Several
	// trackers may watch the same session.
	TrackerID [16]byte
	// SessionID is the job session the tracker is subscribed to.
	SessionID string
	// TS is the UTC time the tracker recorded the event.
	TS    time.Time
	Stage Stage
	// Overall is the rendered overall percentage at the time of the event.
	Overall int
	// Elapsed is the job's reported elapsed time.
	Elapsed time.Duration
	// Dur is the session's wall time so far, set on terminal stages.
	Dur time.Duration
	// Note carries the failure cause for SESSION_FAILED.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.TrackerID == [16]byte{} {
		return errors.New("tracker id is required")
	}
	if e.SessionID == "" {
		return errors.New("session id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageStart, StageSnapshot, StageComplete, StageDisposed:
	case StageFailed:
		if e.Note == "" {
			return errors.New("failed stage requires a note")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Overall < 0 {
		return errors.New("overall must be >= 0")
	}
	if e.Dur < 0 || e.Elapsed < 0 {
		return errors.New("durations must be >= 0")
	}
	return nil
}

// TrackerUUID converts the binary tracker ID for repositories and logs.
func (e Event) TrackerUUID() uuid.UUID {
	return uuid.UUID(e.TrackerID)
}
