package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raingrid_store_fetches_total",
			Help: "Total blob store requests by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	FetchBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raingrid_fetch_bytes_total",
			Help: "Total bytes downloaded from the blob store",
		},
	)

	SamplesFolded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raingrid_samples_folded_total",
			Help: "Total samples folded into aggregates",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raingrid_runs_total",
			Help: "Total aggregation runs by mode and outcome",
		},
		[]string{"mode", "status"},
	)
)
