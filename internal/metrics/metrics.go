package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for batch runs and the HTTP API
type Metrics struct {
	ImagesProcessed     *prometheus.CounterVec
	CracksDetected      prometheus.Counter
	CracksKept          prometheus.Counter
	PixelToMM           prometheus.Gauge
	MapRenderDuration   *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ImagesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crackmap_images_processed_total",
			Help: "Images processed by the detection pipeline.",
		}, []string{"outcome"}), // recorded, no_cracks, filtered, no_location, failed
		CracksDetected: f.NewCounter(prometheus.CounterOpts{
			Name: "crackmap_cracks_detected_total",
			Help: "Crack instances reported by segmentation.",
		}),
		CracksKept: f.NewCounter(prometheus.CounterOpts{
			Name: "crackmap_cracks_kept_total",
			Help: "Crack instances that passed the size filter.",
		}),
		PixelToMM: f.NewGauge(prometheus.GaugeOpts{
			Name: "crackmap_pixel_to_mm",
			Help: "Millimeters per pixel used by the latest run.",
		}),
		MapRenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crackmap_map_render_duration_seconds",
			Help:    "Duration of map document rendering.",
			Buckets: prometheus.DefBuckets,
		}, []string{"map"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// ObserveImage counts one processed image and its crack instances
func (m *Metrics) ObserveImage(outcome string, detected, kept int) {
	if m == nil {
		return
	}
	m.ImagesProcessed.WithLabelValues(outcome).Inc()
	m.CracksDetected.Add(float64(detected))
	m.CracksKept.Add(float64(kept))
}

// SetPixelToMM records the scale of the current run
func (m *Metrics) SetPixelToMM(v float64) {
	if m == nil {
		return
	}
	m.PixelToMM.Set(v)
}

// ObserveMapRender records how long a map took to render
func (m *Metrics) ObserveMapRender(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.MapRenderDuration.WithLabelValues(kind).Observe(seconds)
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format read by the node exporter textfile collector
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
