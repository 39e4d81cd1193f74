package metrics

import (
	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "payment_batch"

// Collector holds the ingestion counters on its own registry.
type Collector struct {
	registry *prometheus.Registry

	PaymentsRead    prometheus.Counter
	PaymentsWritten prometheus.Counter
	PaymentsSkipped prometheus.Counter
	Partitions      *prometheus.CounterVec
	ActiveSteps     prometheus.Gauge
	StepDuration    prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		PaymentsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_read_total",
			Help:      "Payments read by committed chunks",
		}),
		PaymentsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_written_total",
			Help:      "Payments committed to the store",
		}),
		PaymentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_skipped_total",
			Help:      "Unparseable rows skipped under the skip limit",
		}),
		Partitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_total",
			Help:      "Partitions that reached a terminal state",
		}, []string{"status"}),
		ActiveSteps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_partitions",
			Help:      "Partitions currently running",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "partition_duration_seconds",
			Help:      "Wall time of one partition",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
	}

	c.registry.MustRegister(
		c.PaymentsRead,
		c.PaymentsWritten,
		c.PaymentsSkipped,
		c.Partitions,
		c.ActiveSteps,
		c.StepDuration,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// StepListener feeds step events into a Collector.
type StepListener struct {
	collector *Collector
}

func NewStepListener(collector *Collector) *StepListener {
	return &StepListener{collector: collector}
}

func (l *StepListener) BeforeStep(event models.StepEvent) {
	l.collector.ActiveSteps.Inc()
}

func (l *StepListener) AfterStep(event models.StepEvent) {
	l.collector.ActiveSteps.Dec()
	l.collector.PaymentsRead.Add(float64(event.ReadCount))
	l.collector.PaymentsWritten.Add(float64(event.WriteCount))
	l.collector.PaymentsSkipped.Add(float64(event.SkipCount))
	l.collector.Partitions.WithLabelValues(string(event.Status)).Inc()
	l.collector.StepDuration.Observe(event.Duration.Seconds())
}
