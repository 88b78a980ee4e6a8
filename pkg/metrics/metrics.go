package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records bearer-token validations by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskrythm_auth_attempts_total",
			Help: "Total number of bearer token validations",
		},
		[]string{"result"},
	)

	// RoleChecks counts workspace role evaluations and their outcome (allowed|denied|error).
	RoleChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskrythm_role_checks_total",
			Help: "Total number of workspace role checks",
		},
		[]string{"result"},
	)

	// AICalls counts outbound model invocations per feature and outcome (success|transport_error|parse_error).
	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskrythm_ai_calls_total",
			Help: "Total number of generative model calls",
		},
		[]string{"feature", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskrythm_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
