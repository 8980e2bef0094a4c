package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "standupdoc", Name: "documents_generated_total", Help: "Number of occurrence documents created or regenerated, by mode."},
		[]string{"mode"}, // create | regenerate
	)
	SummarizeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "standupdoc", Name: "summarize_failures_total", Help: "Number of failed summarizer calls."},
	)
	DuplicateRaces = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "standupdoc", Name: "document_duplicate_races_total", Help: "Number of document inserts that lost a creation race and fell back to a re-read."},
	)
	TriggerRuns = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "standupdoc", Name: "trigger_runs_total", Help: "Number of completed generation trigger sweeps."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "standupdoc", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "standupdoc", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentsGenerated)
	reg.MustRegister(SummarizeFailures)
	reg.MustRegister(DuplicateRaces)
	reg.MustRegister(TriggerRuns)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
