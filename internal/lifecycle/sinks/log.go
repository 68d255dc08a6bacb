package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
)

// LogSink writes one structured log line per lifecycle event.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event. Snapshots go to debug; session boundaries to info,
// failures to warn.
func (s *LogSink) Consume(_ context.Context, batch []lifecycle.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.Stringer("tracker_id", evt.TrackerUUID()),
			zap.String("session_id", evt.SessionID),
			zap.String("stage", string(evt.Stage)),
			zap.Int("overall", evt.Overall),
			zap.Duration("elapsed", evt.Elapsed),
		}
		switch evt.Stage {
		case lifecycle.StageSnapshot:
			s.logger.Debug("progress snapshot", fields...)
		case lifecycle.StageFailed:
			s.logger.Warn("progress session failed", append(fields, zap.String("note", evt.Note))...)
		default:
			if evt.Stage.Terminal() {
				fields = append(fields, zap.Duration("dur", evt.Dur))
			}
			s.logger.Info("progress session event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
