package idempotency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes
const (
	OutcomeReplayed = "replayed"
	OutcomeExecuted = "executed"
	OutcomeMismatch = "mismatch"
	OutcomeInFlight = "in_flight"
)

// Metrics counts how keyed requests were resolved
type Metrics struct {
	// Labels: service, endpoint, outcome
	Requests *prometheus.CounterVec
	// Labels: service, endpoint
	ClaimDuration *prometheus.HistogramVec
	// Labels: service, operation
	StorageErrors *prometheus.CounterVec
}

// NewMetrics registers on registry, or the default registerer when nil
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_requests_total",
			Help: "Requests carrying an Idempotency-Key by outcome",
		}, []string{"service", "endpoint", "outcome"}),
		ClaimDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idempotency_claim_duration_seconds",
			Help:    "Time spent claiming an idempotency key",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "endpoint"}),
		StorageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_storage_errors_total",
			Help: "Failed idempotency store operations",
		}, []string{"service", "operation"}),
	}
}

func (m *Metrics) outcome(service, endpoint, outcome string) {
	if m != nil {
		m.Requests.WithLabelValues(service, endpoint, outcome).Inc()
	}
}

func (m *Metrics) claimed(service, endpoint string, seconds float64) {
	if m != nil {
		m.ClaimDuration.WithLabelValues(service, endpoint).Observe(seconds)
	}
}

func (m *Metrics) storageError(service, operation string) {
	if m != nil {
		m.StorageErrors.WithLabelValues(service, operation).Inc()
	}
}
