// Package metrics exports ranking and search activity as Prometheus metrics.
package metrics

import (
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/ranking"
	"github.com/poiesic/rankit/search"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRankingsTotal        = "rankit_rankings_total"
	MetricRelaxationsTotal     = "rankit_relaxations_total"
	MetricCandidatesConsidered = "rankit_candidates_considered"
	MetricResultsReturned      = "rankit_results_returned"
	MetricProviderErrorsTotal  = "rankit_provider_errors_total"
	MetricDuplicatesTotal      = "rankit_duplicates_total"
)

// Relaxation stages.
const (
	StageLow        = "low"
	StageUnfiltered = "unfiltered"
)

// Monitor records ranking passes and searches.
// It is safe for concurrent use and may be shared by every run.
type Monitor struct {
	registry *prometheus.Registry

	rankings       prometheus.Counter
	relaxations    *prometheus.CounterVec
	considered     prometheus.Histogram
	returned       prometheus.Histogram
	providerErrors *prometheus.CounterVec
	duplicates     prometheus.Counter
}

var _ search.SearchMonitor = (*Monitor)(nil)

// NewMonitor creates a monitor with its own registry.
func NewMonitor() *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		rankings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingsTotal,
			Help: "Total number of completed ranking passes",
		}),
		relaxations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRelaxationsTotal,
			Help: "Total number of threshold relaxations by stage",
		}, []string{"stage"}),
		considered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCandidatesConsidered,
			Help:    "Histogram of distinct candidates scored per ranking pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		returned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricResultsReturned,
			Help:    "Histogram of results returned per ranking pass",
			Buckets: []float64{0, 1, 3, 5, 10, 25, 50, 100},
		}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricProviderErrorsTotal,
			Help: "Total number of failed provider calls by provider",
		}, []string{"provider"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricDuplicatesTotal,
			Help: "Total number of gathered candidates dropped as duplicates",
		}),
	}
	m.registry.MustRegister(m.Collectors()...)
	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Collectors returns all collectors.
func (m *Monitor) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankings,
		m.relaxations,
		m.considered,
		m.returned,
		m.providerErrors,
		m.duplicates,
	}
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Monitor) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Monitor) Start(_ core.Query, _ int)                     {}
func (m *Monitor) AfterScoring(_ []*core.ScoredCandidate)        {}
func (m *Monitor) AfterFilter(_ ranking.State, _ float64, _ int) {}

func (m *Monitor) Relaxed(_, _ float64) {
	m.relaxations.WithLabelValues(StageLow).Inc()
}

func (m *Monitor) FellBack(_ int) {
	m.relaxations.WithLabelValues(StageUnfiltered).Inc()
}

func (m *Monitor) Finish(outcome ranking.Outcome) {
	m.rankings.Inc()
	m.considered.Observe(float64(outcome.Considered))
	m.returned.Observe(float64(len(outcome.Results)))
}

func (m *Monitor) Gathered(slot search.Slot, _ int, err error) {
	if err != nil {
		m.providerErrors.WithLabelValues(slot.Provider).Inc()
	}
}

func (m *Monitor) Merged(gathered, unique int) {
	m.duplicates.Add(float64(gathered - unique))
}
