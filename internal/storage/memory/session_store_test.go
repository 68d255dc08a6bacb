package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/convert-progress/internal/store"
)

func TestSessionStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSessionStore()
	id := uuid.New()
	start := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.RecordStart(ctx, id, "sess-1", start))
	require.NoError(t, s.RecordStart(ctx, id, "sess-other", start.Add(time.Hour)))
	require.NoError(t, s.RecordSnapshots(ctx, id, 2, 40, start.Add(time.Second)))
	require.NoError(t, s.RecordSnapshots(ctx, id, 1, 100, start.Add(2*time.Second)))
	require.NoError(t, s.RecordOutcome(ctx, id, start.Add(3*time.Second), store.RunComplete, 100, nil))

	// Snapshots after the run finished are ignored.
	require.NoError(t, s.RecordSnapshots(ctx, id, 5, 10, start.Add(4*time.Second)))

	run, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "sess-1", run.SessionID)
	require.Equal(t, store.RunComplete, run.Status)
	require.Equal(t, int64(3), run.Snapshots)
	require.Equal(t, 100, run.LastOverall)
	require.NotNil(t, run.FinishedAt)
}

func TestSessionStoreMissing(t *testing.T) {
	t.Parallel()

	s := NewSessionStore()
	_, err := s.GetSession(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
	err = s.RecordOutcome(context.Background(), uuid.New(), time.Now(), store.RunFailed, 0, nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionStoreList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSessionStore()
	base := time.Unix(1700000000, 0).UTC()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, s.RecordStart(ctx, ids[0], "a", base))
	require.NoError(t, s.RecordStart(ctx, ids[1], "a", base.Add(time.Minute)))
	require.NoError(t, s.RecordStart(ctx, ids[2], "b", base.Add(2*time.Minute)))

	all, err := s.ListSessions(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, ids[2], all[0].TrackerID)

	onlyA, err := s.ListSessions(ctx, "a", 1, 0)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	require.Equal(t, ids[1], onlyA[0].TrackerID)

	none, err := s.ListSessions(ctx, "a", 10, 5)
	require.NoError(t, err)
	require.Empty(t, none)
}
