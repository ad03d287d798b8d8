package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parcel_delay"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// tracking service.
type Metrics struct {
	Searches *prometheus.CounterVec // labels: outcome={found,not_found,invalid,superseded,error,reset}

	// Weather probe metrics.
	WeatherResolutions *prometheus.CounterVec // labels: source={live,fallback,override}
	WeatherAPIDuration prometheus.Histogram

	// Prediction metrics.
	Predictions         *prometheus.CounterVec // labels: cause={traffic,weather,none}
	PredictedDelayHours prometheus.Histogram

	// Notification metrics.
	Notifications       *prometheus.CounterVec // labels: result={inserted,deduplicated}
	NotificationsUnread prometheus.Gauge
	AlertsPublished     *prometheus.CounterVec // labels: outcome={success,error}

	ParcelCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Searches,
		m.WeatherResolutions,
		m.WeatherAPIDuration,
		m.Predictions,
		m.PredictedDelayHours,
		m.Notifications,
		m.NotificationsUnread,
		m.AlertsPublished,
		m.ParcelCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Tracking searches by outcome.",
		}, []string{"outcome"}),
		WeatherResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_resolutions_total",
			Help:      "Weather resolutions by the source that produced the value.",
		}, []string{"source"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "OpenWeather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Delay predictions by cause.",
		}, []string{"cause"}),
		PredictedDelayHours: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_delay_hours",
			Help:      "Predicted delivery delay in hours.",
			Buckets:   []float64{0, 4, 8, 12, 24},
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Delay alert insert attempts by result.",
		}, []string{"result"}),
		NotificationsUnread: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_unread",
			Help:      "Unread notifications in the current session.",
		}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Delay alerts published to Kafka by outcome.",
		}, []string{"outcome"}),
		ParcelCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parcel_cache_total",
			Help:      "Parcel lookup cache results.",
		}, []string{"result"}),
	}
}
