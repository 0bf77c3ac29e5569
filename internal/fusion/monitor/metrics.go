package monitor

import (
	"math"
	"net/http"
	"time"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l3clusters"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors on a private
// registry. It implements pipeline.Observer and is safe for concurrent use.
type Metrics struct {
	framesClustered prometheus.Counter
	pairsProcessed  prometheus.Counter
	lidarPoints     *prometheus.CounterVec
	keypointMatches *prometheus.CounterVec
	ttcUndefined    *prometheus.CounterVec
	ttcSeconds      *prometheus.HistogramVec
	stepLatency     prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		framesClustered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ttc_frames_clustered_total",
			Help: "Frames whose LiDAR scan was clustered into boxes",
		}),
		pairsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ttc_frame_pairs_processed_total",
			Help: "Consecutive frame pairs stepped through matching and TTC",
		}),
		lidarPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttc_lidar_points_total",
			Help: "Cropped LiDAR points by clustering outcome",
		}, []string{"outcome"}),
		keypointMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttc_keypoint_matches_total",
			Help: "Keypoint matches inside a shrunk box ROI, kept or rejected as flow outliers",
		}, []string{"outcome"}),
		ttcUndefined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttc_undefined_total",
			Help: "Matched box pairs without a defined TTC estimate",
		}, []string{"sensor"}),
		ttcSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ttc_seconds",
			Help:    "Defined TTC estimates",
			Buckets: []float64{-10, -1, 0, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"sensor"}),
		stepLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ttc_step_duration_seconds",
			Help:    "Wall time of one frame-pair step",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.framesClustered,
		m.pairsProcessed,
		m.lidarPoints,
		m.keypointMatches,
		m.ttcUndefined,
		m.ttcSeconds,
		m.stepLatency,
	)
	return m
}

// ObserveLidarClustering records one frame's clustering outcome.
func (m *Metrics) ObserveLidarClustering(s l3clusters.ClusterStats) {
	m.framesClustered.Inc()
	m.lidarPoints.WithLabelValues("assigned").Add(float64(s.Assigned))
	m.lidarPoints.WithLabelValues("ambiguous").Add(float64(s.Ambiguous))
	m.lidarPoints.WithLabelValues("unenclosed").Add(float64(s.Unenclosed))
	m.lidarPoints.WithLabelValues("unprojectable").Add(float64(s.Unprojectable))
}

// ObserveKeypointClustering records one box's keypoint association.
func (m *Metrics) ObserveKeypointClustering(s l3clusters.KeypointStats) {
	m.keypointMatches.WithLabelValues("kept").Add(float64(s.Kept))
	m.keypointMatches.WithLabelValues("rejected").Add(float64(s.Rejected()))
}

// ObserveTTC records one estimate; NaN counts as undefined.
func (m *Metrics) ObserveTTC(sensor string, ttc float64) {
	if math.IsNaN(ttc) {
		m.ttcUndefined.WithLabelValues(sensor).Inc()
		return
	}
	m.ttcSeconds.WithLabelValues(sensor).Observe(ttc)
}

// ObserveStep records one completed frame-pair step.
func (m *Metrics) ObserveStep(elapsed time.Duration) {
	m.pairsProcessed.Inc()
	m.stepLatency.Observe(elapsed.Seconds())
}

// Handler returns the Prometheus HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
