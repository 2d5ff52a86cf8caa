package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fix outcome labels for FixesProcessed.
const (
	StatusPlaced   = "placed"
	StatusUpdated  = "updated"
	StatusRejected = "rejected"
)

type Metrics struct {
	FixesProcessed   *prometheus.CounterVec
	GeocodingErrors  prometheus.Counter
	RequestSeconds   *prometheus.HistogramVec
	ActiveWorkers    prometheus.Gauge
	ObserverDistance prometheus.Gauge
	PlacementScale   prometheus.Gauge
	EventSeconds     *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		FixesProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anchor_fixes_processed_total",
			Help: "Total number of location fixes handled, by outcome.",
		}, []string{"status"}),
		GeocodingErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anchor_geocoding_errors_total",
			Help: "Total number of failed reference point lookups.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anchor_geocoding_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "anchor_geocoding_active_workers",
			Help: "Current number of workers resolving reference points.",
		}),
		ObserverDistance: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "anchor_observer_distance_meters",
			Help: "Distance between the observer and the anchor at the last fix.",
		}),
		PlacementScale: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "anchor_placement_scale",
			Help: "Uniform scale applied to the model at the last placement.",
		}),
		EventSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anchor_event_handle_duration_seconds",
			Help:    "Time spent handling one location service event.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"kind"}),
	}
}
