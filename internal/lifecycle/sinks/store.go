package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
	"github.com/JakeFAU/convert-progress/internal/store"
)

// StoreSink records sessions through a store.SessionRepository. Snapshot
// events are collapsed per tracker within a batch to one write.
type StoreSink struct {
	repo   store.SessionRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for repo.
func NewStoreSink(repo store.SessionRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

type snapshotDelta struct {
	count   int64
	overall int
	at      time.Time
}

// Consume applies the batch in order, flushing collapsed snapshot counts
// before any terminal write for the same tracker.
func (s *StoreSink) Consume(ctx context.Context, batch []lifecycle.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	pending := make(map[uuid.UUID]*snapshotDelta)
	var order []uuid.UUID

	for _, evt := range batch {
		id := evt.TrackerUUID()
		switch evt.Stage {
		case lifecycle.StageStart:
			if err := s.repo.RecordStart(ctx, id, evt.SessionID, evt.TS); err != nil {
				return fmt.Errorf("record start: %w", err)
			}
		case lifecycle.StageSnapshot:
			d := pending[id]
			if d == nil {
				d = &snapshotDelta{}
				pending[id] = d
				order = append(order, id)
			}
			d.count++
			d.overall = evt.Overall
			d.at = evt.TS
		case lifecycle.StageComplete, lifecycle.StageFailed, lifecycle.StageDisposed:
			if d := pending[id]; d != nil {
				if err := s.repo.RecordSnapshots(ctx, id, d.count, d.overall, d.at); err != nil {
					return fmt.Errorf("record snapshots: %w", err)
				}
				delete(pending, id)
			}
			if err := s.recordOutcome(ctx, id, evt); err != nil {
				return err
			}
		}
	}
	for _, id := range order {
		d := pending[id]
		if d == nil {
			continue
		}
		if err := s.repo.RecordSnapshots(ctx, id, d.count, d.overall, d.at); err != nil {
			return fmt.Errorf("record snapshots: %w", err)
		}
	}
	return nil
}

func (s *StoreSink) recordOutcome(ctx context.Context, id uuid.UUID, evt lifecycle.Event) error {
	status := store.RunComplete
	var note *string
	switch evt.Stage {
	case lifecycle.StageFailed:
		status = store.RunFailed
		msg := evt.Note
		note = &msg
	case lifecycle.StageDisposed:
		status = store.RunDisposed
	}
	if err := s.repo.RecordOutcome(ctx, id, evt.TS, status, evt.Overall, note); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
