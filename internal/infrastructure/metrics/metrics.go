package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_http_requests_total",
			Help: "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "cryptosub_http_request_duration_seconds",
			Help: "Duration of inbound HTTP requests in seconds",
		},
		[]string{"method", "route"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_provider_requests_total",
			Help: "Outbound price and explorer requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryptosub_provider_request_duration_seconds",
			Help:    "Duration of outbound provider requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"provider"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cryptosub_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	PriceLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_price_lookups_total",
			Help: "Price oracle answers by crypto type and source",
		},
		[]string{"crypto_type", "source"},
	)
	PriceFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_price_fallback_total",
			Help: "Price lookups answered from the static table after every provider failed",
		},
		[]string{"crypto_type"},
	)

	ChainSourceOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_chain_source_outcomes_total",
			Help: "Explorer source outcomes per crypto type",
		},
		[]string{"crypto_type", "source", "outcome"},
	)
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_verifications_total",
			Help: "Verification calls by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	PollerSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_poller_sweeps_total",
			Help: "Background sweeps by outcome",
		},
		[]string{"outcome"},
	)
	PollerPaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosub_poller_payments_total",
			Help: "Payments processed by the background sweep by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)

		prometheus.MustRegister(ProviderRequestsTotal)
		prometheus.MustRegister(ProviderRequestDuration)
		prometheus.MustRegister(CircuitBreakerState)

		prometheus.MustRegister(PriceLookupsTotal)
		prometheus.MustRegister(PriceFallbackTotal)

		prometheus.MustRegister(ChainSourceOutcomesTotal)
		prometheus.MustRegister(VerificationsTotal)

		prometheus.MustRegister(PollerSweepsTotal)
		prometheus.MustRegister(PollerPaymentsTotal)
	})
}
