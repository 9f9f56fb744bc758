// Package metrics holds the named prometheus instruments the indexer and
// read API expose, following the HealthLogger pattern of a private
// registry plus one struct field per instrument rather than the global
// default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter/histogram/gauge the indexer emits.
type Metrics struct {
	registry *prometheus.Registry

	GetBlockDuration prometheus.Histogram

	SaveDurationBlock        *prometheus.HistogramVec
	SaveDurationTransactions prometheus.Histogram
	SaveDurationEvidences    prometheus.Histogram
	SaveDurationCommitSig    prometheus.Histogram

	SaveCountBlock prometheus.Counter

	LastSaveBlockHeight prometheus.Gauge
	LastGetBlockHeight  prometheus.Gauge
}

// New registers and returns a fresh instrument set against its own registry
// (never the global DefaultRegisterer), so tests can construct as many as
// they like without colliding.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		GetBlockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "indexer_get_block_duration",
			Help: "Time in seconds to fetch a block and its results from the node.",
		}),
		SaveDurationBlock: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "db_save_duration_block",
			Help: "Time in ms to save a block and its rows in one transaction, labelled by outcome.",
		}, []string{"status"}),
		SaveDurationTransactions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "db_save_duration_transactions",
			Help: "Time in ms to bulk insert a block's transactions.",
		}),
		SaveDurationEvidences: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "db_save_duration_evidences",
			Help: "Time in ms to bulk insert a block's evidences.",
		}),
		SaveDurationCommitSig: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "db_save_duration_commit_sig",
			Help: "Time in ms to bulk insert a block's commit signatures.",
		}),
		SaveCountBlock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "db_save_count_block",
			Help: "Number of blocks successfully committed.",
		}),
		LastSaveBlockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_last_save_block_height",
			Help: "Height of the last block committed to the database.",
		}),
		LastGetBlockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_last_get_block_height",
			Help: "Height of the last block fetched from the node.",
		}),
	}

	reg.MustRegister(
		m.GetBlockDuration,
		m.SaveDurationBlock,
		m.SaveDurationTransactions,
		m.SaveDurationEvidences,
		m.SaveDurationCommitSig,
		m.SaveCountBlock,
		m.LastSaveBlockHeight,
		m.LastGetBlockHeight,
	)
	return m
}

// Handler exposes the registry over /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
