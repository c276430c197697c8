package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/crackmap-backend-go/internal/measure"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cam := cfg.Camera()
	assert.Equal(t, 8.16, cam.SensorWidthMM)
	assert.Equal(t, 5.4, cam.FocalLengthMM)
	assert.Equal(t, 4032, cam.ImageWidthPX)
	assert.Equal(t, 4.0, cam.SRScale)
	assert.Equal(t, 100.0, cfg.Thresholds().MinArea)
	assert.Zero(t, cfg.Thresholds().MinWidth)

	style := cfg.Overlay()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, style.Color)
	assert.Equal(t, 0.6, style.Alpha)
	assert.Equal(t, 400, style.Width)
	assert.Equal(t, 85, style.Quality)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SHOOTING_DISTANCE_MM", "2500")
	t.Setenv("MIN_AREA", "50")

	cfg, err := Load(newFlags(t, "--shooting-distance-mm=3000", "--segment-args=infer.py,--fast"))
	require.NoError(t, err)

	assert.Equal(t, 3000.0, cfg.ShootingDistanceMM)
	assert.Equal(t, 50.0, cfg.MinArea)
	assert.Equal(t, []string{"infer.py", "--fast"}, cfg.SegmentArgs)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crackmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("focal_length_mm: 4.2\noutput_dir: /tmp/out\n"), 0o644))

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, 4.2, cfg.FocalLengthMM)
	assert.Equal(t, filepath.Join("/tmp/out", "images"), cfg.ImageOutputDir())
	assert.Equal(t, filepath.Join("/tmp/out", "maps"), cfg.MapOutputDir())
	assert.Equal(t, cfg.ImageOutputDir(), cfg.MapOptions().ImageDir)
	assert.Equal(t, filepath.Join("/tmp/out", "metrics", "crackmap.prom"), cfg.MetricsPath())

	cfg, err = Load(newFlags(t, "--config", path, "--metrics-file", "/var/lib/node_exporter/crackmap.prom"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/node_exporter/crackmap.prom", cfg.MetricsPath())

	_, err = Load(newFlags(t, "--config", filepath.Join(dir, "missing.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero focal length", func(c *Config) { c.FocalLengthMM = 0 }, measure.ErrInvalidCameraConfig},
		{"zero sr scale", func(c *Config) { c.SRScale = 0 }, measure.ErrInvalidCameraConfig},
		{"zero image height", func(c *Config) { c.ImageHeightPX = 0 }, measure.ErrInvalidCameraConfig},
		{"negative distance", func(c *Config) { c.ShootingDistanceMM = -1 }, measure.ErrInvalidDistance},
		{"negative threshold", func(c *Config) { c.MinWidth = -1 }, nil},
		{"alpha out of range", func(c *Config) { c.OverlayAlpha = 2 }, nil},
		{"bad color", func(c *Config) { c.OverlayColor = "blue" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
