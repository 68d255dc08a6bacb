// Package memory provides an in-process session audit trail for development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/convert-progress/internal/store"
)

// SessionStore keeps session runs in a map.
type SessionStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]store.SessionRun
}

var _ store.SessionRepository = (*SessionStore)(nil)

// NewSessionStore constructs an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{runs: make(map[uuid.UUID]store.SessionRun)}
}

// RecordStart stores a running run unless one already exists.
func (s *SessionStore) RecordStart(_ context.Context, trackerID uuid.UUID, sessionID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[trackerID]; ok {
		return nil
	}
	s.runs[trackerID] = store.SessionRun{
		TrackerID: trackerID,
		SessionID: sessionID,
		StartedAt: startedAt,
		UpdatedAt: startedAt,
		Status:    store.RunRunning,
	}
	return nil
}

// RecordSnapshots bumps counters on a running run.
func (s *SessionStore) RecordSnapshots(_ context.Context, trackerID uuid.UUID, delta int64, lastOverall int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[trackerID]
	if !ok || run.Status != store.RunRunning {
		return nil
	}
	run.Snapshots += delta
	run.LastOverall = lastOverall
	run.UpdatedAt = at
	s.runs[trackerID] = run
	return nil
}

// RecordOutcome finishes a run.
func (s *SessionStore) RecordOutcome(
	_ context.Context,
	trackerID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	lastOverall int,
	errMsg *string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[trackerID]
	if !ok {
		return store.ErrNotFound
	}
	finished := finishedAt
	run.FinishedAt = &finished
	run.UpdatedAt = finishedAt
	run.Status = status
	run.LastOverall = lastOverall
	if errMsg != nil {
		msg := *errMsg
		run.ErrorMessage = &msg
	}
	s.runs[trackerID] = run
	return nil
}

// GetSession returns a copy of the run.
func (s *SessionStore) GetSession(_ context.Context, trackerID uuid.UUID) (store.SessionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[trackerID]
	if !ok {
		return store.SessionRun{}, store.ErrNotFound
	}
	return run, nil
}

// ListSessions returns runs newest first, optionally filtered by sessionID.
func (s *SessionStore) ListSessions(_ context.Context, sessionID string, limit, offset int) ([]store.SessionRun, error) {
	s.mu.RLock()
	out := make([]store.SessionRun, 0, len(s.runs))
	for _, run := range s.runs {
		if sessionID == "" || run.SessionID == sessionID {
			out = append(out, run)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
