package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreHits tracks snapshots loaded
	StoreHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seal_store_hits_total",
			Help: "Total number of contract snapshots loaded from the store",
		},
	)

	// StoreMisses tracks lookups of contracts with no snapshot
	StoreMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seal_store_misses_total",
			Help: "Total number of snapshot lookups with no stored entry",
		},
	)

	// StoreBytesWritten tracks bytes written to Redis
	StoreBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seal_store_bytes_written_total",
			Help: "Total number of snapshot bytes written to the store",
		},
	)

	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seal_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"}, // "save", "load", "delete"
	)
)
