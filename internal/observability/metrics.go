package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windrose"

// Skip reasons for EncodingsSkipped.
const (
	SkipUnchanged     = "unchanged"
	SkipMissingEntity = "missing_entity"
	SkipUnwatched     = "unwatched"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the encoder service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Encoder metrics.
	EncodingsProduced prometheus.Counter
	EncodingsSkipped  *prometheus.CounterVec // labels: reason={unchanged,missing_entity,unwatched}
	BeaufortForce     prometheus.Histogram
	CardsConfigured   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.EncodingsProduced,
		m.EncodingsSkipped,
		m.BeaufortForce,
		m.CardsConfigured,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total host state-change messages read from the source topic."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Total encodings written to the sink topic."),
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      help("Total messages that could not be parsed or encoded."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EncodingsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encodings_produced_total",
			Help:      help("Wind rose encodings computed."),
		}),
		EncodingsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encodings_skipped_total",
			Help:      help("Card recomputations skipped, by reason."),
		}, []string{"reason"}),
		BeaufortForce: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "beaufort_force",
			Help:      help("Beaufort force of each produced encoding."),
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		}),
		CardsConfigured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cards_configured",
			Help:      help("Number of wind rose cards loaded from the card file."),
		}),
	}
}
