package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("session record not found")

// RunStatus mirrors the session_runs status column.
type RunStatus string

// Session run statuses persisted in session_runs.status.
const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
	RunDisposed RunStatus = "disposed"
)

// SessionRun models one tracker's view of a conversion session.
type SessionRun struct {
	// TrackerID is the primary key; one row per tracker instance.
	TrackerID uuid.UUID
	// SessionID is the job session the tracker subscribed to.
	SessionID string
	StartedAt time.Time
	// UpdatedAt moves with every recorded snapshot batch.
	UpdatedAt time.Time
	// FinishedAt is nil while the run is still running.
	FinishedAt *time.Time
	Status     RunStatus
	// LastOverall is the last rendered overall percentage.
	LastOverall int
	// Snapshots counts rendered snapshots.
	Snapshots int64
	// ErrorMessage optionally stores the failure cause.
	ErrorMessage *string
}

// SessionRepository persists tracker session progress.
type SessionRepository interface {
	// RecordStart inserts the run in running state; repeating it is a no-op.
	RecordStart(ctx context.Context, trackerID uuid.UUID, sessionID string, startedAt time.Time) error
	// RecordSnapshots adds delta rendered snapshots and the latest overall value.
	RecordSnapshots(ctx context.Context, trackerID uuid.UUID, delta int64, lastOverall int, at time.Time) error
	// RecordOutcome marks the run finished with a terminal status.
	RecordOutcome(
		ctx context.Context,
		trackerID uuid.UUID,
		finishedAt time.Time,
		status RunStatus,
		lastOverall int,
		errMsg *string,
	) error

	// GetSession loads a single run or returns ErrNotFound.
	GetSession(ctx context.Context, trackerID uuid.UUID) (SessionRun, error)
	// ListSessions returns runs, optionally filtered by session id, newest first.
	ListSessions(ctx context.Context, sessionID string, limit, offset int) ([]SessionRun, error)
}
