package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	streamsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tas",
		Name:      "answer_streams_started_total",
		Help:      "Answer streams opened for agent runs",
	})

	streamsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tas",
			Name:      "answer_streams_completed_total",
			Help:      "Answer streams ended by outcome",
		},
		[]string{"outcome"}, // "answered", "no_answer"
	)

	forwardedTokens = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tas",
		Name:      "answer_tokens_forwarded_total",
		Help:      "Answer tokens forwarded to clients",
	})

	agentIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tas",
		Name:      "agent_iterations",
		Help:      "Generations used per agent run",
		Buckets:   []float64{1, 2, 3, 5, 8},
	})
)
