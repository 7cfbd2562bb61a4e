// Package metrics holds the prometheus collectors of the wizard service.
// All recording methods are nil-safe so components can run without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cakewizard"

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeStale     = "stale"
	OutcomeCancelled = "cancelled"
)

// Metrics contains the wizard collectors.
type Metrics struct {
	registry *prometheus.Registry

	WizardsOpen      prometheus.Gauge
	WizardsOpened    prometheus.Counter
	StepsAdvanced    *prometheus.CounterVec
	StaleDiscarded   *prometheus.CounterVec
	LeafCalls        *prometheus.CounterVec
	LeafDuration     *prometheus.HistogramVec
	Submissions      *prometheus.CounterVec
	FragmentsApplied prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WizardsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "open",
			Help:      "Number of wizards currently held in memory",
		}),
		WizardsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "opened_total",
			Help:      "Total number of wizards opened",
		}),
		StepsAdvanced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "steps_advanced_total",
			Help:      "Forward transitions by target step",
		}, []string{"step"}),
		StaleDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because the configuration moved on",
		}, []string{"kind"}),
		LeafCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaf",
			Name:      "calls_total",
			Help:      "Calls to leaf services by operation and outcome",
		}, []string{"operation", "outcome"}),
		LeafDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leaf",
			Name:      "duration_seconds",
			Help:      "Leaf service call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "total",
			Help:      "Finish attempts by outcome",
		}, []string{"outcome"}),
		FragmentsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enhancement",
			Name:      "fragments_total",
			Help:      "Text fragments appended to customization texts",
		}),
	}
	m.registry.MustRegister(
		m.WizardsOpen, m.WizardsOpened, m.StepsAdvanced, m.StaleDiscarded,
		m.LeafCalls, m.LeafDuration, m.Submissions, m.FragmentsApplied,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Opened records a new wizard.
func (m *Metrics) Opened() {
	if m == nil {
		return
	}
	m.WizardsOpened.Inc()
	m.WizardsOpen.Inc()
}

// Dropped records a wizard removed from memory.
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.WizardsOpen.Dec()
}

// Advanced records a forward transition into step.
func (m *Metrics) Advanced(step string) {
	if m == nil {
		return
	}
	m.StepsAdvanced.WithLabelValues(step).Inc()
}

// Stale records a discarded response of the given kind.
func (m *Metrics) Stale(kind string) {
	if m == nil {
		return
	}
	m.StaleDiscarded.WithLabelValues(kind).Inc()
}

// Leaf records one leaf service call.
func (m *Metrics) Leaf(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.LeafCalls.WithLabelValues(operation, outcome).Inc()
	m.LeafDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Submission records a finish attempt.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// Fragment records one appended enhancement fragment.
func (m *Metrics) Fragment() {
	if m == nil {
		return
	}
	m.FragmentsApplied.Inc()
}
