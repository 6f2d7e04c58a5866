package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var resolveCalls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tas",
		Name:      "resolver_calls_total",
		Help:      "Entity resolution calls by variant and result",
	},
	[]string{"variant", "result"},
)
