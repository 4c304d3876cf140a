package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and the alert notifier.
type Metrics struct {
	// Ingestion metrics.
	ArticlesFetched     *prometheus.CounterVec // labels: keyword
	FetchErrors         *prometheus.CounterVec // labels: keyword
	CandidatesDropped   *prometheus.CounterVec // labels: reason={incomplete,duplicate_title,no_location,unresolved}
	RecordsStored       prometheus.Counter
	IngestCycleDuration prometheus.Histogram
	IngestRunning       prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={found,not_found,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Alerting metrics.
	AlertsMatched    prometheus.Counter
	AlertsSent       prometheus.Counter
	AlertsSuppressed prometheus.Counter // ledger said already delivered
	DeliveryErrors   prometheus.Counter

	// Record feed metrics.
	FeedPublished prometheus.Counter
	FeedErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ArticlesFetched,
		m.FetchErrors,
		m.CandidatesDropped,
		m.RecordsStored,
		m.IngestCycleDuration,
		m.IngestRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.AlertsMatched,
		m.AlertsSent,
		m.AlertsSuppressed,
		m.DeliveryErrors,
		m.FeedPublished,
		m.FeedErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ArticlesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "articles_fetched_total",
			Help:      "Article hits returned by the search API, by keyword.",
		}, []string{"keyword"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "fetch_errors_total",
			Help:      "Failed per-keyword search requests.",
		}, []string{"keyword"}),
		CandidatesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "candidates_dropped_total",
			Help:      "Candidates dropped during ingestion, by reason.",
		}, []string{"reason"}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "records_stored_total",
			Help:      "Records upserted into the article store.",
		}),
		IngestCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_monitor",
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-extract-geocode-store cycle.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_monitor",
			Name:      "ingest_running",
			Help:      "1 while an ingestion cycle is in progress.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		AlertsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "alerts_matched_total",
			Help:      "Record-subscriber pairs that matched during alert cycles.",
		}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "alerts_sent_total",
			Help:      "Alert emails successfully delivered.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "alerts_suppressed_total",
			Help:      "Matches skipped because the delivery ledger already held the pair.",
		}),
		DeliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "delivery_errors_total",
			Help:      "Alert emails that failed to send.",
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "feed_published_total",
			Help:      "Records published to the sink topic.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_monitor",
			Name:      "feed_errors_total",
			Help:      "Failed feed publish batches.",
		}),
	}
}
