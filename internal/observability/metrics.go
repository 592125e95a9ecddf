package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	contactSubmissionsTotal *prometheus.CounterVec
	deliveryLatencySeconds  *prometheus.HistogramVec
	healthProbesTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0},
		}, []string{"method", "route"})

		contactSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact submissions by outcome.",
		}, []string{"outcome"})

		deliveryLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contact_delivery_duration_seconds",
			Help:    "Time spent handing a message to the mail transport.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 15.0, 30.0},
		}, []string{"transport", "kind", "result"})

		healthProbesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "health_probes_total",
			Help: "Background health probes by probe and result.",
		}, []string{"probe", "result"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, contactSubmissionsTotal, deliveryLatencySeconds, healthProbesTotal)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// ContactSubmissions exposes the submission outcome counter.
func ContactSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return contactSubmissionsTotal
}

// DeliveryLatency exposes the per-message delivery histogram.
func DeliveryLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return deliveryLatencySeconds
}

// HealthProbes exposes the background probe counter.
func HealthProbes() *prometheus.CounterVec {
	RegisterMetrics()
	return healthProbesTotal
}
