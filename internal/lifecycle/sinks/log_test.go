package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
)

func TestLogSinkLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	sink := NewLogSink(zap.New(core))
	id := [16]byte(uuid.New())
	now := time.Now()

	require.NoError(t, sink.Consume(context.Background(), []lifecycle.Event{
		{TrackerID: id, SessionID: "s1", TS: now, Stage: lifecycle.StageStart},
		{TrackerID: id, SessionID: "s1", TS: now, Stage: lifecycle.StageSnapshot, Overall: 5},
		{TrackerID: id, SessionID: "s1", TS: now, Stage: lifecycle.StageFailed, Note: "boom"},
	}))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, zap.DebugLevel, entries[1].Level)
	require.Equal(t, zap.WarnLevel, entries[2].Level)
	require.Equal(t, "boom", entries[2].ContextMap()["note"])
	require.NoError(t, sink.Close(context.Background()))
}
