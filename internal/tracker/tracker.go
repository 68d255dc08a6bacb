package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/clock/system"
	idgen "github.com/JakeFAU/convert-progress/internal/id/uuid"
	"github.com/JakeFAU/convert-progress/internal/lifecycle"
	"github.com/JakeFAU/convert-progress/internal/progress"
	"github.com/JakeFAU/convert-progress/internal/view"
)

var (
	// ErrAlreadyStarted is returned by every Start call after the first
	// successful one.
	ErrAlreadyStarted = errors.New("tracker already started")
	// ErrNoSource is returned by Start when no Source was configured.
	ErrNoSource = errors.New("tracker has no progress source")
	// ErrNoSession is returned by Start when the session id is empty.
	ErrNoSession = errors.New("tracker has no session id")
)

const (
	transportErrorText = "Connection to the conversion server was lost"
	payloadErrorText   = "Received an invalid progress update from the server"
)

// Tracker follows a single session. Create it with New; the zero value is
// not usable.
type Tracker struct {
	id        [16]byte
	sessionID string
	target    RenderTarget
	source    Source
	navigator Navigator
	clock     Clock
	emitter   lifecycle.Emitter
	logger    *zap.Logger
	pageURL   *url.URL
	navDelay  time.Duration
	policy    RegressionPolicy

	mu      sync.Mutex
	state   State
	err     error
	started bool

	// Owned by the loop goroutine once Start returns.
	sub        Subscription
	startedAt  time.Time
	maxOverall int
	overall    int
	elapsed    int

	closeOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New builds an idle tracker for sessionID rendering into target. It
// performs no I/O.
func New(sessionID string, target RenderTarget, opts ...Option) *Tracker {
	t := &Tracker{
		sessionID: sessionID,
		target:    target,
		clock:     system.New(),
		emitter:   lifecycle.Discard,
		logger:    zap.NewNop(),
		navDelay:  DefaultNavigationDelay,
		policy:    PolicyClamp,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == [16]byte{} {
		t.id = idgen.New().NewTrackerID()
	}
	t.logger = t.logger.With(
		zap.String("session_id", sessionID),
		zap.Stringer("tracker_id", uuid.UUID(t.id)),
	)
	return t
}

// ID returns the tracker's identifier.
func (t *Tracker) ID() [16]byte {
	return t.id
}

// SessionID returns the session the tracker follows.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the cause of a failed session, or nil.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done is closed when the tracker's loop has exited. A completed session
// exits after its navigation has been issued.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Start shows the progress container and opens the session's stream. A
// Subscribe failure does not fail Start; it moves the tracker to
// StateFailed like any other transport error. Cancelling ctx disposes the
// tracker.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	switch {
	case t.started:
		t.mu.Unlock()
		return ErrAlreadyStarted
	case t.sessionID == "":
		t.mu.Unlock()
		return ErrNoSession
	case t.source == nil:
		t.mu.Unlock()
		return ErrNoSource
	}
	t.started = true
	t.state = StateActive
	t.mu.Unlock()

	t.startedAt = t.clock.Now()
	t.target.ShowProgress()
	t.emit(lifecycle.StageStart, "")
	t.logger.Info("tracking progress")

	sub, err := t.source.Subscribe(ctx, t.sessionID)
	if err != nil {
		t.fail(fmt.Errorf("subscribe: %w", err))
		close(t.done)
		return nil
	}
	t.sub = sub
	go t.run(ctx)
	return nil
}

// Dispose ends the session from the host side. An active session closes its
// subscription without a banner; a completed session cancels its pending
// navigation. Dispose blocks until the loop exits and is safe to call more
// than once. Before Start it does nothing.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if !started {
		return
	}
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	msgs := t.sub.Messages()
	var navigate <-chan time.Time
	var target string

	for {
		select {
		case <-ctx.Done():
			t.dispose("context cancelled")
			return
		case <-t.stop:
			t.dispose("disposed by host")
			return
		case msg, ok := <-msgs:
			if !ok {
				t.fail(progress.ErrStreamClosed)
				return
			}
			if t.handle(msg) {
				continue
			}
			if t.State() != StateComplete {
				return
			}
			var found bool
			if target, found = ResultURL(t.pageURL); !found {
				t.logger.Warn("page url has no filename; skipping result navigation")
				return
			}
			msgs = nil
			navigate = t.clock.After(t.navDelay)
		case <-navigate:
			t.navigateTo(ctx, target)
			return
		}
	}
}

// handle processes one stream message and reports whether the session is
// still active afterwards.
func (t *Tracker) handle(msg progress.Message) bool {
	if msg.Err != nil {
		t.fail(msg.Err)
		return false
	}
	snap, err := progress.Decode(msg.Data)
	if err != nil {
		t.fail(err)
		return false
	}
	t.render(snap)
	if snap.Complete() {
		t.complete()
		return false
	}
	return true
}

func (t *Tracker) render(snap progress.Snapshot) {
	pct := snap.OverallProgress
	if pct < t.maxOverall {
		t.logger.Debug("overall progress regressed",
			zap.Int("received", pct),
			zap.Int("max_seen", t.maxOverall),
			zap.Stringer("policy", t.policy),
		)
		if t.policy == PolicyClamp {
			pct = t.maxOverall
		}
	}
	t.maxOverall = max(t.maxOverall, pct)
	t.overall = min(pct, 100)
	t.elapsed = snap.ElapsedTime

	t.target.RenderProgress(view.Progress{
		Overall: t.overall,
		Elapsed: progress.FormatElapsed(snap.ElapsedTime),
		Steps:   view.Steps(snap.Steps),
	})
	t.emit(lifecycle.StageSnapshot, "")
}

func (t *Tracker) complete() {
	if !t.transition(StateComplete, nil) {
		return
	}
	t.closeSubscription()
	t.target.ShowComplete()
	t.emit(lifecycle.StageComplete, "")
	t.logger.Info("conversion complete", zap.Int("elapsed_seconds", t.elapsed))
}

func (t *Tracker) fail(cause error) {
	if !t.transition(StateFailed, cause) {
		return
	}
	t.closeSubscription()
	text := transportErrorText
	if errors.Is(cause, progress.ErrMalformedSnapshot) {
		text = payloadErrorText
	}
	t.target.ShowError(text)
	t.emit(lifecycle.StageFailed, cause.Error())
	t.logger.Warn("progress stream failed", zap.Error(cause))
}

func (t *Tracker) dispose(reason string) {
	if t.transition(StateDisposed, nil) {
		t.closeSubscription()
		t.emit(lifecycle.StageDisposed, "")
		t.logger.Info("tracker disposed", zap.String("reason", reason))
		return
	}
	if t.State() == StateComplete {
		t.logger.Info("result navigation cancelled", zap.String("reason", reason))
	}
}

func (t *Tracker) navigateTo(ctx context.Context, target string) {
	if t.navigator == nil {
		t.logger.Warn("no navigator configured", zap.String("target", target))
		return
	}
	if err := t.navigator.Navigate(ctx, target); err != nil {
		t.logger.Error("result navigation failed", zap.String("target", target), zap.Error(err))
		return
	}
	t.logger.Info("navigated to result", zap.String("target", target))
}

// transition moves an active tracker to a terminal state. It returns false
// when the tracker already left StateActive.
func (t *Tracker) transition(to State, cause error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return false
	}
	t.state = to
	t.err = cause
	return true
}

func (t *Tracker) closeSubscription() {
	t.closeOnce.Do(func() {
		if t.sub == nil {
			return
		}
		if err := t.sub.Close(); err != nil {
			t.logger.Debug("close subscription", zap.Error(err))
		}
	})
}

func (t *Tracker) emit(stage lifecycle.Stage, note string) {
	now := t.clock.Now()
	evt := lifecycle.Event{
		TrackerID: t.id,
		SessionID: t.sessionID,
		TS:        now,
		Stage:     stage,
		Overall:   t.overall,
		Elapsed:   time.Duration(max(t.elapsed, 0)) * time.Second,
		Note:      note,
	}
	if stage.Terminal() {
		evt.Dur = max(now.Sub(t.startedAt), 0)
	}
	t.emitter.Emit(evt)
}
