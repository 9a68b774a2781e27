// Package metrics registers the engine's prometheus instrumentation the
// way pkg/logql/engine.go registers QueryTime/QueriesBlocked: a struct of
// promauto-created collectors built once per registerer (SPEC_FULL.md
// §4.9 Ambient stack).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's counters/histograms/gauges. Only
// FilterTimeouts and FilterLatency are updated in this module (by
// cmd/postingctl's query command); Promotions, Demotions and Cardinality
// are registered but nothing increments or sets them.
type Metrics struct {
	Promotions     *prometheus.CounterVec
	Demotions      *prometheus.CounterVec
	FilterTimeouts prometheus.Counter
	FilterLatency  prometheus.Histogram
	Cardinality    *prometheus.GaugeVec
}

// New registers a fresh Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Promotions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postingcore",
			Name:      "handle_promotions_total",
			Help:      "Number of PostingSetHandle promotions from compact to block-backed, by field.",
		}, []string{"field"}),
		Demotions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postingcore",
			Name:      "handle_demotions_total",
			Help:      "Number of PostingSetHandle demotions from block-backed to compact, by field.",
		}, []string{"field"}),
		FilterTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "postingcore",
			Name:      "filter_timeouts_total",
			Help:      "Number of FilterResultIterator evaluations that latched timed_out.",
		}),
		FilterLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "postingcore",
			Name:      "filter_eval_seconds",
			Help:      "Latency of a full FilterResultIterator materialization.",
			Buckets:   prometheus.DefBuckets,
		}),
		Cardinality: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "postingcore",
			Name:      "field_cardinality",
			Help:      "Approximate number of distinct values indexed per field.",
		}, []string{"field"}),
	}
}
