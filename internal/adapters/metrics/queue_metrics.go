package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// QueueMetricsCollector records delivery queue events. It implements logging.Recorder.
type QueueMetricsCollector struct {
	entriesEnqueued *prometheus.CounterVec
	entriesDropped  *prometheus.CounterVec
	sendAttempts    *prometheus.CounterVec
	retries         prometheus.Counter
	flushes         *prometheus.CounterVec
	batchSize       prometheus.Histogram
	fallbackEntries prometheus.Counter
	queueSize       prometheus.Gauge
}

// NewQueueMetricsCollector creates a new queue metrics collector
func NewQueueMetricsCollector() *QueueMetricsCollector {
	return &QueueMetricsCollector{
		entriesEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "entries_enqueued_total",
				Help:      "Total number of entries accepted into the queue by level",
			},
			[]string{"level"},
		),

		// Overflow evictions by the level of the dropped entry
		entriesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "entries_dropped_total",
				Help:      "Total number of entries evicted on overflow by level",
			},
			[]string{"level"},
		),

		sendAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "send_attempts_total",
				Help:      "Total number of transport attempts by result",
			},
			[]string{"success"},
		),

		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "retries_total",
				Help:      "Total number of backoff retries",
			},
		),

		flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "flushes_total",
				Help:      "Total number of completed flushes by outcome",
			},
			[]string{"outcome"},
		),

		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_size",
				Help:      "Number of entries per flushed batch",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
		),

		fallbackEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fallback_entries_total",
				Help:      "Total number of entries written to the console after delivery failed",
			},
		),

		queueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "size",
				Help:      "Current number of queued entries",
			},
		),
	}
}

// Register registers all queue metrics with the Prometheus registry
func (c *QueueMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.entriesEnqueued,
		c.entriesDropped,
		c.sendAttempts,
		c.retries,
		c.flushes,
		c.batchSize,
		c.fallbackEntries,
		c.queueSize,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

func (c *QueueMetricsCollector) RecordEnqueued(level logging.Level) {
	c.entriesEnqueued.WithLabelValues(level.String()).Inc()
}

func (c *QueueMetricsCollector) RecordDropped(level logging.Level) {
	c.entriesDropped.WithLabelValues(level.String()).Inc()
}

func (c *QueueMetricsCollector) RecordSendAttempt(success bool) {
	c.sendAttempts.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (c *QueueMetricsCollector) RecordRetry() {
	c.retries.Inc()
}

func (c *QueueMetricsCollector) RecordFlush(outcome logging.FlushOutcome, size int) {
	c.flushes.WithLabelValues(string(outcome)).Inc()
	c.batchSize.Observe(float64(size))
}

func (c *QueueMetricsCollector) RecordFallback(entries int) {
	c.fallbackEntries.Add(float64(entries))
}

func (c *QueueMetricsCollector) SetQueueSize(size int) {
	c.queueSize.Set(float64(size))
}

var _ logging.Recorder = (*QueueMetricsCollector)(nil)
