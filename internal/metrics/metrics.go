// Package metrics exposes the process-wide Prometheus collectors. They are
// registered on the default registry and served by promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldvote_votes_accepted_total",
		Help: "Votes accepted and written to the store.",
	})

	VotesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worldvote_votes_rejected_total",
		Help: "Vote submissions rejected, by reason.",
	}, []string{"reason"})

	EnqueueFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldvote_job_enqueue_failures_total",
		Help: "Side-effect jobs that could not be enqueued.",
	})

	JobEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worldvote_job_effects_total",
		Help: "Side-effect executions, by effect and outcome.",
	}, []string{"effect", "outcome"})
)
