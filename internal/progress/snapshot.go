package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSnapshot marks a stream payload that does not describe a valid
// snapshot. Once seen, the rest of the stream cannot be trusted.
var ErrMalformedSnapshot = errors.New("malformed progress snapshot")

// ErrStreamClosed reports that the server ended the stream before the job
// finished.
var ErrStreamClosed = errors.New("progress stream closed by server")

// Status is the lifecycle state of a pipeline step or substep.
type Status string

// Step statuses emitted by the conversion pipeline.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// Snapshot is one complete description of job progress, as received over the
// stream. Step identity is its position; the order is fixed for a job.
type Snapshot struct {
	// SessionID echoes the producer's session when present.
	SessionID string `json:"session_id,omitempty"`
	// OverallProgress is a 0-100 percentage; >= 100 means the job is done.
	OverallProgress int `json:"overall_progress"`
	// ElapsedTime is whole seconds since the job started.
	ElapsedTime int `json:"elapsed_time"`
	// CurrentStep optionally names the step being worked on.
	CurrentStep string `json:"current_step,omitempty"`
	Steps       []Step `json:"steps"`
}

// Step is a named unit of pipeline work.
type Step struct {
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	Progress int       `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
	Substeps []Substep `json:"substeps,omitempty"`
}

// Substep is a single level of detail nested under a Step.
type Substep struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Complete reports whether the snapshot is terminal for the job.
func (s Snapshot) Complete() bool {
	return s.OverallProgress >= 100
}

// Validate performs coarse validation on a decoded snapshot.
func (s Snapshot) Validate() error {
	if s.OverallProgress < 0 {
		return fmt.Errorf("overall_progress must be >= 0, got %d", s.OverallProgress)
	}
	if s.ElapsedTime < 0 {
		return fmt.Errorf("elapsed_time must be >= 0, got %d", s.ElapsedTime)
	}
	for i, step := range s.Steps {
		if !step.Status.Valid() {
			return fmt.Errorf("step %d: unknown status %q", i+1, step.Status)
		}
		if err := checkPercent(step.Progress); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		for j, sub := range step.Substeps {
			if !sub.Status.Valid() {
				return fmt.Errorf("step %d substep %d: unknown status %q", i+1, j+1, sub.Status)
			}
			if err := checkPercent(sub.Progress); err != nil {
				return fmt.Errorf("step %d substep %d: %w", i+1, j+1, err)
			}
		}
	}
	return nil
}

func checkPercent(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("progress must be within 0-100, got %d", p)
	}
	return nil
}

// Decode parses a stream payload into a validated Snapshot. Every failure
// wraps ErrMalformedSnapshot.
func Decode(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Snapshot{}, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedSnapshot)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return snap, nil
}

// FormatElapsed renders seconds as m:ss with the seconds zero-padded.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Message is one item delivered by a stream subscription: either a data
// payload or the transport's own error signal.
type Message struct {
	Data []byte
	Err  error
}
