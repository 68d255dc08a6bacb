package tracker

import (
	"context"
	"time"

	"github.com/JakeFAU/convert-progress/internal/progress"
	"github.com/JakeFAU/convert-progress/internal/view"
)

// RenderTarget receives every view update a tracker makes. The tracker is
// its only writer and calls it from the loop goroutine. RenderProgress
// carries one whole snapshot so it can be drawn as a single frame.
type RenderTarget interface {
	ShowProgress()
	RenderProgress(p view.Progress)
	ShowComplete()
	ShowError(msg string)
}

// Source opens a per-session progress stream.
type Source interface {
	Subscribe(ctx context.Context, sessionID string) (Subscription, error)
}

// Subscription is an open stream. Messages is closed once the stream ends;
// Close releases the underlying connection.
type Subscription interface {
	Messages() <-chan progress.Message
	Close() error
}

// Navigator hands the session off to the result view.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// Clock abstracts time so tests can drive the navigation delay.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
