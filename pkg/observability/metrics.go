package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine activity as Prometheus series.
type Metrics struct {
	NodeVisits *prometheus.CounterVec
	NodeTime   *prometheus.HistogramVec
	Actions    *prometheus.CounterVec
	Choices    *prometheus.CounterVec

	mu      sync.Mutex
	entered map[string]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mortar",
				Name:      "node_visits_total",
				Help:      "Total number of node entries.",
			},
			[]string{"path", "node"},
		),
		NodeTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mortar",
				Name:      "node_duration_seconds",
				Help:      "Time spent in a node between entry and exit.",
				Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 300},
			},
			[]string{"path", "node"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mortar",
				Name:      "actions_dispatched_total",
				Help:      "Actions handed to the host.",
			},
			[]string{"action", "source"},
		),
		Choices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mortar",
				Name:      "choices_confirmed_total",
				Help:      "Confirmed choices by outcome.",
			},
			[]string{"node", "outcome"},
		),
		entered: make(map[string]time.Time),
	}

	for _, c := range []prometheus.Collector{m.NodeVisits, m.NodeTime, m.Actions, m.Choices} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Path, e.Node).Inc()
			m.mu.Lock()
			m.entered[e.SessionID] = e.Timestamp
			m.mu.Unlock()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.mu.Lock()
			start, ok := m.entered[e.SessionID]
			delete(m.entered, e.SessionID)
			m.mu.Unlock()
			if ok {
				m.NodeTime.WithLabelValues(e.Path, e.Node).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(e.Name, string(e.Source)).Inc()
		},
		OnChoice: func(_ context.Context, e *domain.ChoiceEvent) {
			m.Choices.WithLabelValues(e.Node, e.Outcome.String()).Inc()
		},
	}
}
