package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TurnsProcessed    *prometheus.CounterVec
	CommandsHandled   *prometheus.CounterVec
	LocationsCaptured *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	TurnSeconds       prometheus.Histogram
	APIErrors         *prometheus.CounterVec
	RequestSeconds    *prometheus.HistogramVec
	GeocodeCache      *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TurnsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_turns_processed_total",
			Help: "Total number of processed conversation turns.",
		}, []string{"status"}),
		CommandsHandled: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_commands_total",
			Help: "Total number of intercepted special commands.",
		}, []string{"command"}),
		LocationsCaptured: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_locations_captured_total",
			Help: "Total number of finished location dialogs.",
		}, []string{"outcome"}),
		ActiveSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "waypoint_active_sessions",
			Help: "Current number of suspended location dialogs.",
		}),
		TurnSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_turn_duration_seconds",
			Help:    "Duration of a single conversation turn.",
			Buckets: prometheus.DefBuckets,
		}),
		APIErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}, []string{"provider", "method"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "method"}),
		GeocodeCache: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_cache_total",
			Help: "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		EventsPublished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_events_published_total",
			Help: "Captured location events written to Kafka.",
		}, []string{"status"}),
	}
}
