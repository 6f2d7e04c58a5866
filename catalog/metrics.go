package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tas",
			Name:      "catalog_loads_total",
			Help:      "Catalog load attempts by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	entriesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tas",
			Name:      "catalog_entries",
			Help:      "Number of entries in the published catalog snapshot",
		},
	)
)
