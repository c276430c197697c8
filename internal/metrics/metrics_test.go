package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestObserveImage(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveImage("recorded", 3, 2)
	m.ObserveImage("filtered", 1, 0)
	m.ObserveImage("recorded", 1, 1)

	assert.Equal(t, 2.0, value(t, m.ImagesProcessed.WithLabelValues("recorded")))
	assert.Equal(t, 1.0, value(t, m.ImagesProcessed.WithLabelValues("filtered")))
	assert.Equal(t, 5.0, value(t, m.CracksDetected))
	assert.Equal(t, 3.0, value(t, m.CracksKept))
}

func TestSetPixelToMM(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetPixelToMM(0.28)
	assert.Equal(t, 0.28, value(t, m.PixelToMM))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveImage("failed", 1, 0)
		m.SetPixelToMM(1)
		m.ObserveMapRender("total", 0.1)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveImage("recorded", 2, 1)
	m.SetPixelToMM(0.5)

	path := filepath.Join(t.TempDir(), "textfile", "crackmap.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `crackmap_images_processed_total{outcome="recorded"} 1`)
	assert.Contains(t, string(data), "crackmap_cracks_kept_total 1")
	assert.Contains(t, string(data), "crackmap_pixel_to_mm 0.5")
}
