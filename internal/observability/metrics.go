package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// soil-intelligence service.
type Metrics struct {
	Detections    *prometheus.CounterVec // labels: source={api,cache,fallback}
	SlopeRequests *prometheus.CounterVec // labels: outcome={ok,degraded}
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
	BreakerOpen   prometheus.Gauge       // 1 while the SoilGrids breaker is open

	// Upstream fetch metrics.
	FetchRequests    *prometheus.CounterVec   // labels: path={rest,wcs,elevation}, outcome={success,error}
	FetchDuration    *prometheus.HistogramVec // labels: path={rest,wcs,elevation}
	RasterPixelReads prometheus.Counter

	DetectionEventsPublished prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Detections,
		m.SlopeRequests,
		m.CacheLookups,
		m.BreakerOpen,
		m.FetchRequests,
		m.FetchDuration,
		m.RasterPixelReads,
		m.DetectionEventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_intel",
			Name:      "detections_total",
			Help:      "Completed soil detections by result source.",
		}, []string{"source"}),
		SlopeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_intel",
			Name:      "slope_requests_total",
			Help:      "Slope estimations by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_intel",
			Name:      "cache_lookups_total",
			Help:      "Spatial cache lookups by result.",
		}, []string{"result"}),
		BreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soil_intel",
			Name:      "soilgrids_breaker_open",
			Help:      "1 while the SoilGrids REST circuit breaker is open.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_intel",
			Name:      "fetch_requests_total",
			Help:      "Upstream fetch attempts by path and outcome.",
		}, []string{"path", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soil_intel",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"path"}),
		RasterPixelReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_intel",
			Name:      "raster_pixel_reads_total",
			Help:      "Center-pixel values extracted from WCS coverages.",
		}),
		DetectionEventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_intel",
			Name:      "detection_events_published_total",
			Help:      "Detection events published to the analytics topic.",
		}),
	}
}
