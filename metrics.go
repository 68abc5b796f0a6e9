// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the acquisition layer updates:
//   • chain_pages_walked_total        – Reference pages fetched
//   • chain_contracts_collected_total – Contract rows collected off those pages
//   • chain_walk_partial_total        – Walks ended early by a page error
//   • chain_snapshot_fetches_total{status} – Snapshot fetches by outcome (ok|failed|timeout)
//   • chain_snapshot_inflight         – Snapshot requests currently in flight (gauge)
//   • chain_runs_total{result}        – Full queries by result (ok|partial|empty|auth_error)
//   • chain_run_duration_seconds      – End-to-end query latency (histogram)
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxPagesWalked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_pages_walked_total",
			Help: "Reference pages fetched across all walks",
		},
	)

	mtxContractsCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_contracts_collected_total",
			Help: "Contract reference rows collected",
		},
	)

	mtxWalkPartial = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_walk_partial_total",
			Help: "Walks that stopped early on a page error",
		},
	)

	mtxSnapshotFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_snapshot_fetches_total",
			Help: "Snapshot fetches by outcome",
		},
		[]string{"status"}, // ok|failed|timeout
	)

	mtxSnapshotInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chain_snapshot_inflight",
			Help: "Snapshot requests currently in flight",
		},
	)

	mtxRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_runs_total",
			Help: "Full chain queries by result",
		},
		[]string{"result"}, // ok|partial|empty|auth_error
	)

	mtxRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chain_run_duration_seconds",
			Help:    "End-to-end chain query latency",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~2m
		},
	)
)

func init() {
	prometheus.MustRegister(mtxPagesWalked, mtxContractsCollected, mtxWalkPartial)
	prometheus.MustRegister(mtxSnapshotFetches, mtxSnapshotInflight)
	prometheus.MustRegister(mtxRuns, mtxRunDuration)
}
