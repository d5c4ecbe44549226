// Package metrics provides application-level Prometheus counters.
// Counters are registered on Registry and served on /metrics by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every tech-tracker collector.
var Registry = prometheus.NewRegistry()

// Operation counters.
var (
	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tech_tracker_mutations_total",
		Help: "Successful catalog mutations by catalog key and operation.",
	}, []string{"catalog", "op"})

	PersistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tech_tracker_persist_failures_total",
		Help: "Snapshot writes that failed after the in-memory mutation was applied.",
	}, []string{"catalog"})

	Fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tech_tracker_fetches_total",
		Help: "External source fetches by outcome.",
	}, []string{"outcome"})

	Imports = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tech_tracker_imports_total",
		Help: "Accepted JSON imports.",
	})

	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tech_tracker_exports_total",
		Help: "Exports by format.",
	}, []string{"format"})
)

func init() {
	Registry.MustRegister(
		Mutations,
		PersistFailures,
		Fetches,
		Imports,
		Exports,
		collectors.NewGoCollector(),
	)
}
