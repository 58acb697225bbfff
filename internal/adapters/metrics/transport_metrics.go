package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// transportSubsystem groups the collector request metrics
const transportSubsystem = "transport"

// TransportMetricsCollector handles metrics for requests to the log collector
type TransportMetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimitWait   prometheus.Histogram
}

// NewTransportMetricsCollector creates a new transport metrics collector
func NewTransportMetricsCollector() *TransportMetricsCollector {
	return &TransportMetricsCollector{
		// Requests by method and status code; "error" when no response arrived
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: transportSubsystem,
				Name:      "requests_total",
				Help:      "Total number of collector requests by method and status code",
			},
			[]string{"method", "status_code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: transportSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Collector request duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"method"},
		),

		rateLimitWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: transportSubsystem,
				Name:      "rate_limit_wait_seconds",
				Help:      "Time spent waiting for the rate limiter",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
		),
	}
}

// Register registers all transport metrics with the Prometheus registry
func (c *TransportMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.requestsTotal,
		c.requestDuration,
		c.rateLimitWait,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordRequest records a completed request. A zero statusCode means the
// request failed before a response arrived.
func (c *TransportMetricsCollector) RecordRequest(method string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	c.requestsTotal.WithLabelValues(method, status).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRateLimitWait records time spent waiting for the rate limiter
func (c *TransportMetricsCollector) RecordRateLimitWait(d time.Duration) {
	c.rateLimitWait.Observe(d.Seconds())
}
