package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
)

// PrometheusSink exports tracker session metrics.
type PrometheusSink struct {
	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	sessionDuration  *prometheus.HistogramVec
	snapshots        prometheus.Counter
	lastOverall      *prometheus.GaugeVec

	active *activeSet
}

// NewPrometheusSink registers the collectors against reg.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progresswatch_sessions_started_total",
			Help: "Tracker sessions that subscribed to a progress stream.",
		}),
		sessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progresswatch_sessions_finished_total",
			Help: "Tracker sessions that reached a terminal state, by result.",
		}, []string{"result"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "progresswatch_sessions_active",
			Help: "Tracker sessions currently subscribed.",
		}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "progresswatch_session_duration_seconds",
			Help:    "Wall time from subscription to terminal state.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"result"}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progresswatch_snapshots_total",
			Help: "Progress snapshots rendered across all sessions.",
		}),
		lastOverall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "progresswatch_session_overall_percent",
			Help: "Last rendered overall progress per session.",
		}, []string{"session_id"}),
		active: newActiveSet(),
	}
	for _, collector := range []prometheus.Collector{
		s.sessionsStarted,
		s.sessionsFinished,
		s.sessionsActive,
		s.sessionDuration,
		s.snapshots,
		s.lastOverall,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register lifecycle collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []lifecycle.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case lifecycle.StageStart:
			s.sessionsStarted.Inc()
			if s.active.add(evt.TrackerID) {
				s.sessionsActive.Inc()
			}
		case lifecycle.StageSnapshot:
			s.snapshots.Inc()
			s.lastOverall.WithLabelValues(evt.SessionID).Set(float64(evt.Overall))
		case lifecycle.StageComplete, lifecycle.StageFailed, lifecycle.StageDisposed:
			s.finish(evt)
		}
	}
	return nil
}

func (s *PrometheusSink) finish(evt lifecycle.Event) {
	result := resultLabel(evt.Stage)
	s.sessionsFinished.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.sessionDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	if s.active.remove(evt.TrackerID) {
		s.sessionsActive.Dec()
	}
	s.lastOverall.DeleteLabelValues(evt.SessionID)
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

func resultLabel(stage lifecycle.Stage) string {
	switch stage {
	case lifecycle.StageComplete:
		return "complete"
	case lifecycle.StageFailed:
		return "failed"
	default:
		return "disposed"
	}
}

type activeSet struct {
	mu  sync.Mutex
	ids map[[16]byte]struct{}
}

func newActiveSet() *activeSet {
	return &activeSet{ids: make(map[[16]byte]struct{})}
}

func (a *activeSet) add(id [16]byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.ids[id]; ok {
		return false
	}
	a.ids[id] = struct{}{}
	return true
}

func (a *activeSet) remove(id [16]byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.ids[id]; !ok {
		return false
	}
	delete(a.ids, id)
	return true
}
