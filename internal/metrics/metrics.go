// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts mining activity with Prometheus collectors on a
// private registry. A run can dump the registry to a textfile for the node
// exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage labels for candidate counters.
const (
	StageMatched   = "matched"
	StageFiltered  = "filtered"
	StageKept      = "kept"
	StageValidated = "validated"
)

// Metrics groups the collectors used by the pipeline. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Publications *prometheus.CounterVec
	Candidates   *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec
	FetchRetries prometheus.Counter
	Duration     prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tool_miner",
			Name:      "publications_total",
			Help:      "Publications processed, by outcome.",
		}, []string{"status"}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tool_miner",
			Name:      "candidates_total",
			Help:      "Tool candidates by category and pipeline stage.",
		}, []string{"category", "stage"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tool_miner",
			Name:      "cache_lookups_total",
			Help:      "Publication cache lookups by result.",
		}, []string{"result"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tool_miner",
			Name:      "fetch_retries_total",
			Help:      "HTTP retries issued while fetching literature.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tool_miner",
			Name:      "publication_seconds",
			Help:      "Wall time spent mining one publication.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	m.Registry.MustRegister(m.Publications, m.Candidates, m.CacheLookups, m.FetchRetries, m.Duration)
	return m
}

func (m *Metrics) Publication(status string) {
	if m == nil {
		return
	}
	m.Publications.WithLabelValues(status).Inc()
}

func (m *Metrics) Candidate(category, stage string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Candidates.WithLabelValues(category, stage).Add(float64(n))
}

func (m *Metrics) Cache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

func (m *Metrics) Observe(seconds float64) {
	if m == nil {
		return
	}
	m.Duration.Observe(seconds)
}

// WriteTextfile writes the registry in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
