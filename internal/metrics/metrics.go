package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counts trade lines by outcome.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_lines_total",
			Help: "Trade lines processed by the enrichment pipeline, by result.",
		},
		[]string{"result"}, // accepted | invalid_columns | invalid_date | write_failed
	)

	// Counts lookups that fell back to the default product name.
	MissingProductLookups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_missing_product_lookups_total",
			Help: "Product lookups that resolved to the missing product name.",
		},
	)

	EnrichmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_duration_seconds",
			Help:    "Duration of a complete enrichment stream.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
	)

	// Catalog mutations by operation and outcome.
	CatalogMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Catalog add/change/remove calls by operation and result.",
		},
		[]string{"op", "result"}, // result = "ok" | "rejected"
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Number of products currently held in the catalog.",
		},
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages published.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)
)

// ObserveDuration records the time elapsed since start on a histogram.
func ObserveDuration(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

func IncTrade(result string) {
	TradesTotal.WithLabelValues(result).Inc()
}

func IncMissingProduct() {
	MissingProductLookups.Inc()
}

func IncCatalogMutation(op string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	CatalogMutations.WithLabelValues(op, result).Inc()
}

func SetCatalogSize(n int) {
	CatalogSize.Set(float64(n))
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
