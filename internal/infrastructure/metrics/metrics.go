package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	// Verification codes emailed, by variant.
	VerificationCodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "verification_codes_issued_total",
			Help:      "Verification codes created and emailed",
		},
		[]string{"variant"},
	)

	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "verification_attempts_total",
			Help:      "Verification code checks by outcome",
		},
		[]string{"variant", "outcome"},
	)

	APIKeyValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "api_key_validations_total",
			Help:      "API key validations by outcome",
		},
		[]string{"outcome"},
	)

	TypeVersionsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "type_versions_published_total",
			Help:      "Ontology type versions stored",
		},
		[]string{"kind"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blockprotocol",
			Subsystem: "hub_api",
			Name:      "store_operation_duration_seconds",
			Help:      "Database operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"collection", "operation"},
	)
)
