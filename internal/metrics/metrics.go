// Package metrics counts what the stabilizer did: cache hits and misses,
// solver outcomes and latency, and recorded provenance.
//
// Each Metrics has its own registry so that one process can run several
// pipelines (and tests) without collector clashes. A CLI run dumps the
// registry in the Prometheus text format for node_exporter's textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fpstab"

// Lookup result labels
const (
	LookupHit    = "hit"
	LookupMiss   = "miss"
	// LookupShared is a miss answered by another caller's in-flight
	// solver call.
	LookupShared = "shared"
)

// Stabilization status labels
const (
	StatusImproved  = "improved"
	StatusUnchanged = "unchanged"
	StatusUnknown   = "unknown"
)

// Metrics holds the collectors of one pipeline. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// cacheLookups counts cache lookups.
	// Labels: result (hit, miss, shared)
	cacheLookups *prometheus.CounterVec

	// solverCalls counts solver invocations.
	// Labels: outcome (ok or a failure kind)
	solverCalls *prometheus.CounterVec

	// solverLatency measures wall time of solver invocations.
	solverLatency prometheus.Histogram

	// debugRecords counts provenance rows handed to the cache.
	debugRecords prometheus.Counter

	// stabilizations counts finished Stabilize calls.
	// Labels: status (improved, unchanged, unknown)
	stabilizations *prometheus.CounterVec
}

// New creates a Metrics with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result",
		}, []string{"result"}),
		solverCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "calls_total",
			Help:      "Solver invocations by outcome",
		}, []string{"outcome"}),
		solverLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "duration_seconds",
			Help:      "Solver invocation wall time in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		debugRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "debug_records_total",
			Help:      "Provenance records written to the cache",
		}),
		stabilizations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stabilizations_total",
			Help:      "Completed stabilizations by status",
		}, []string{"status"}),
	}
}

// Registry exposes the underlying registry as a Gatherer.
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// RecordLookup records how one stabilization was answered: LookupHit,
// LookupMiss or LookupShared.
func (m *Metrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordSolverCall records one solver invocation.
//
// Inputs:
//
//	outcome - "ok" or the failure kind name.
//	d - Wall time of the call.
func (m *Metrics) RecordSolverCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.solverCalls.WithLabelValues(outcome).Inc()
	m.solverLatency.Observe(d.Seconds())
}

// RecordDebugInfo records a provenance row.
func (m *Metrics) RecordDebugInfo() {
	if m == nil {
		return
	}
	m.debugRecords.Inc()
}

// RecordStabilization records a finished Stabilize call.
func (m *Metrics) RecordStabilization(status string) {
	if m == nil {
		return
	}
	m.stabilizations.WithLabelValues(status).Inc()
}

// WriteTextfile writes every collector to path in the Prometheus text
// format, replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
