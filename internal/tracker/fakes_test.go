package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
	"github.com/JakeFAU/convert-progress/internal/progress"
	"github.com/JakeFAU/convert-progress/internal/view"
)

type fakeSubscription struct {
	msgs   chan progress.Message
	closes atomic.Int32
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{msgs: make(chan progress.Message, 16)}
}

func (s *fakeSubscription) Messages() <-chan progress.Message { return s.msgs }

func (s *fakeSubscription) Close() error {
	s.closes.Add(1)
	return nil
}

func (s *fakeSubscription) send(payload string) {
	s.msgs <- progress.Message{Data: []byte(payload)}
}

func (s *fakeSubscription) fail(err error) {
	s.msgs <- progress.Message{Err: err}
}

type fakeSource struct {
	sub   *fakeSubscription
	err   error
	calls atomic.Int32
}

func (s *fakeSource) Subscribe(context.Context, string) (Subscription, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.sub, nil
}

type fakeTarget struct {
	mu        sync.Mutex
	shown     int
	overall   []int
	elapsed   []string
	steps     [][]view.Step
	completes int
	errors    []string
}

func (f *fakeTarget) ShowProgress() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown++
}

func (f *fakeTarget) RenderProgress(p view.Progress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overall = append(f.overall, p.Overall)
	f.elapsed = append(f.elapsed, p.Elapsed)
	f.steps = append(f.steps, p.Steps)
}

func (f *fakeTarget) ShowComplete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
}

func (f *fakeTarget) ShowError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, msg)
}

func (f *fakeTarget) overallValues() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.overall...)
}

func (f *fakeTarget) counts() (completes, errs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completes, len(f.errors)
}

// fakeClock fires After channels only when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
	fire   chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		fire: make(chan time.Time, 1),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	return c.fire
}

func (c *fakeClock) requested() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

func (c *fakeClock) elapse() {
	c.fire <- time.Now()
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []lifecycle.Event
}

func (r *recordingEmitter) Emit(evt lifecycle.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) stages() []lifecycle.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lifecycle.Stage, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Stage)
	}
	return out
}

var errConnectionReset = errors.New("connection reset by peer")
