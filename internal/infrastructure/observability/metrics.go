package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the RED metric set shared by the application services.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec

	GatewayRequests  *prometheus.CounterVec
	GatewayDurations *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shop_requests_total",
				Help: "Total number of application operation invocations.",
			},
			[]string{"operation", "outcome"},
		),
		Durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shop_operation_duration_seconds",
				Help:    "Duration of application operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_requests_total",
				Help: "Total number of payment gateway round trips.",
			},
			[]string{"endpoint", "outcome"},
		),
		GatewayDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_gateway_request_duration_seconds",
				Help:    "Duration of payment gateway round trips in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}

	reg.MustRegister(m.Requests, m.Durations, m.GatewayRequests, m.GatewayDurations)
	return m
}

// NopMetrics returns an unregistered metric set for tests and optional wiring.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// ObserveRequest records one operation invocation.
func (m *Metrics) ObserveRequest(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, outcome).Inc()
	m.Durations.WithLabelValues(operation).Observe(seconds)
}

// ObserveGateway records one gateway round trip.
func (m *Metrics) ObserveGateway(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(endpoint, outcome).Inc()
	m.GatewayDurations.WithLabelValues(endpoint).Observe(seconds)
}
