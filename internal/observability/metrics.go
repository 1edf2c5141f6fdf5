package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry so
// tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	DebatesStarted   prometheus.Counter
	DebatesCompleted prometheus.Counter
	ModelErrors      *prometheus.CounterVec
	JudgeRuns        prometheus.Counter
	StreamDuration   prometheus.Histogram
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		DebatesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "promptpit_debates_started_total",
			Help: "Debate rounds started.",
		}),
		DebatesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "promptpit_debates_completed_total",
			Help: "Debate rounds where every participant reached a terminal state.",
		}),
		ModelErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptpit_model_errors_total",
			Help: "Per-model stream failures.",
		}, []string{"model"}),
		JudgeRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "promptpit_judge_runs_total",
			Help: "Judge sessions started.",
		}),
		StreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptpit_debate_duration_seconds",
			Help:    "Wall time from fan-out to stream close.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
