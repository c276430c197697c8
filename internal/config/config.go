package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jengzang/crackmap-backend-go/internal/damagemap"
	"github.com/jengzang/crackmap-backend-go/internal/database"
	"github.com/jengzang/crackmap-backend-go/internal/measure"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/overlay"
	"github.com/jengzang/crackmap-backend-go/internal/segmentation"
)

// Config 应用配置
type Config struct {
	Port      string `mapstructure:"port"`
	DBPath    string `mapstructure:"db_path"`
	JWTSecret string `mapstructure:"jwt_secret"` // empty disables API auth
	LogLevel  string `mapstructure:"log_level"`

	// 地图接口每分钟请求上限，0 表示不限制
	MapRateLimit int `mapstructure:"map_rate_limit"`

	InputDir     string `mapstructure:"input_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	MetadataJSON string `mapstructure:"metadata_json"` // optional capture index file
	MetricsFile  string `mapstructure:"metrics_file"`  // defaults to <output_dir>/metrics/crackmap.prom

	ShootingDistanceMM float64 `mapstructure:"shooting_distance_mm"`

	// 相机参数
	SensorWidthMM  float64 `mapstructure:"sensor_width_mm"`
	SensorHeightMM float64 `mapstructure:"sensor_height_mm"`
	FocalLengthMM  float64 `mapstructure:"focal_length_mm"`
	ImageWidthPX   int     `mapstructure:"image_width_px"`
	ImageHeightPX  int     `mapstructure:"image_height_px"`
	SRScale        float64 `mapstructure:"sr_scale"`

	// 尺寸过滤阈值（像素）
	MinArea   float64 `mapstructure:"min_area"`
	MinWidth  float64 `mapstructure:"min_width"`
	MinLength float64 `mapstructure:"min_length"`

	OverlayColor string  `mapstructure:"overlay_color"`
	OverlayAlpha float64 `mapstructure:"overlay_alpha"`
	OverlaySize  int     `mapstructure:"overlay_size"`
	JPEGQuality  int     `mapstructure:"jpeg_quality"`

	Segmenter      string   `mapstructure:"segmenter"`
	SegmentCommand string   `mapstructure:"segment_command"`
	SegmentArgs    []string `mapstructure:"segment_args"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Port:           ":8080",
		DBPath:         "./data/crackmap/crackmap.db",
		LogLevel:       "info",
		MapRateLimit:   30,
		OutputDir:      "./output",
		SensorWidthMM:  8.16,
		SensorHeightMM: 6.14,
		FocalLengthMM:  5.4,
		ImageWidthPX:   4032,
		ImageHeightPX:  3024,
		SRScale:        4.0,
		MinArea:        100,
		OverlayColor:   "#ff0000",
		OverlayAlpha:   0.6,
		OverlaySize:    400,
		JPEGQuality:    85,
		Segmenter:      segmentation.KindSidecar,
	}
}

// RegisterFlags defines the command-line flags understood by Load. Flag names
// use dashes, the matching config keys and environment variables use
// underscores (shooting-distance-mm, shooting_distance_mm, SHOOTING_DISTANCE_MM).
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "config file (yaml, json, toml or .env)")
	fs.String("port", d.Port, "HTTP listen address")
	fs.String("db-path", d.DBPath, "sqlite database path")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Int("map-rate-limit", d.MapRateLimit, "map requests per minute per client, 0 disables")
	fs.String("input-dir", d.InputDir, "directory of captured images")
	fs.String("output-dir", d.OutputDir, "directory for overlay images and maps")
	fs.String("metadata-json", d.MetadataJSON, "capture metadata JSON used before EXIF")
	fs.String("metrics-file", d.MetricsFile, "batch metrics textfile for the node exporter")
	fs.Float64("shooting-distance-mm", d.ShootingDistanceMM, "camera to surface distance in millimeters")
	fs.Float64("sensor-width-mm", d.SensorWidthMM, "sensor width in millimeters")
	fs.Float64("sensor-height-mm", d.SensorHeightMM, "sensor height in millimeters")
	fs.Float64("focal-length-mm", d.FocalLengthMM, "focal length in millimeters")
	fs.Int("image-width-px", d.ImageWidthPX, "original image width in pixels")
	fs.Int("image-height-px", d.ImageHeightPX, "original image height in pixels")
	fs.Float64("sr-scale", d.SRScale, "super-resolution scale factor")
	fs.Float64("min-area", d.MinArea, "minimum crack area in pixels, 0 disables")
	fs.Float64("min-width", d.MinWidth, "minimum crack width in pixels, 0 disables")
	fs.Float64("min-length", d.MinLength, "minimum crack length in pixels, 0 disables")
	fs.String("overlay-color", d.OverlayColor, "crack overlay color")
	fs.Float64("overlay-alpha", d.OverlayAlpha, "crack overlay opacity")
	fs.Int("overlay-size", d.OverlaySize, "reference image size in pixels")
	fs.Int("jpeg-quality", d.JPEGQuality, "reference image JPEG quality")
	fs.String("segmenter", d.Segmenter, "segmentation source (sidecar, command)")
	fs.String("segment-command", d.SegmentCommand, "segmentation executable")
	fs.StringSlice("segment-args", d.SegmentArgs, "leading segmentation arguments")
}

// Load merges defaults, an optional config file, environment variables and
// the flags in fs (which may be nil), in increasing priority.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" {
				return
			}
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if err := readConfigFile(v, fs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("jwt_secret", d.JWTSecret)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("map_rate_limit", d.MapRateLimit)
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("metadata_json", d.MetadataJSON)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("shooting_distance_mm", d.ShootingDistanceMM)
	v.SetDefault("sensor_width_mm", d.SensorWidthMM)
	v.SetDefault("sensor_height_mm", d.SensorHeightMM)
	v.SetDefault("focal_length_mm", d.FocalLengthMM)
	v.SetDefault("image_width_px", d.ImageWidthPX)
	v.SetDefault("image_height_px", d.ImageHeightPX)
	v.SetDefault("sr_scale", d.SRScale)
	v.SetDefault("min_area", d.MinArea)
	v.SetDefault("min_width", d.MinWidth)
	v.SetDefault("min_length", d.MinLength)
	v.SetDefault("overlay_color", d.OverlayColor)
	v.SetDefault("overlay_alpha", d.OverlayAlpha)
	v.SetDefault("overlay_size", d.OverlaySize)
	v.SetDefault("jpeg_quality", d.JPEGQuality)
	v.SetDefault("segmenter", d.Segmenter)
	v.SetDefault("segment_command", d.SegmentCommand)
	v.SetDefault("segment_args", d.SegmentArgs)
}

// readConfigFile loads --config when given, otherwise an optional
// crackmap.{yaml,json,toml} from the working directory
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if filepath.Base(path) == ".env" {
				v.SetConfigType("env")
			}
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config %s: %w", path, err)
			}
			return nil
		}
	}

	v.SetConfigName("crackmap")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Validate checks the camera, filter and overlay settings
func (c *Config) Validate() error {
	if err := measure.ValidateIntrinsics(c.Camera()); err != nil {
		return err
	}
	if c.SensorHeightMM <= 0 || c.ImageHeightPX <= 0 {
		return fmt.Errorf("%w: sensor height %v mm, image height %d px",
			measure.ErrInvalidCameraConfig, c.SensorHeightMM, c.ImageHeightPX)
	}
	if c.MinArea < 0 || c.MinWidth < 0 || c.MinLength < 0 {
		return fmt.Errorf("size thresholds must not be negative")
	}
	if _, err := overlay.ParseHexColor(c.OverlayColor); err != nil {
		return err
	}
	if err := c.Overlay().Validate(); err != nil {
		return err
	}
	if c.MapRateLimit < 0 {
		return fmt.Errorf("map rate limit must not be negative")
	}
	if c.ShootingDistanceMM < 0 {
		return fmt.Errorf("%w: %v mm", measure.ErrInvalidDistance, c.ShootingDistanceMM)
	}
	return nil
}

// Camera returns the camera intrinsics
func (c *Config) Camera() models.CameraIntrinsics {
	return models.CameraIntrinsics{
		SensorWidthMM:  c.SensorWidthMM,
		SensorHeightMM: c.SensorHeightMM,
		FocalLengthMM:  c.FocalLengthMM,
		ImageWidthPX:   c.ImageWidthPX,
		ImageHeightPX:  c.ImageHeightPX,
		SRScale:        c.SRScale,
	}
}

// Thresholds returns the size filter thresholds
func (c *Config) Thresholds() models.SizeThresholds {
	return models.SizeThresholds{
		MinArea:   c.MinArea,
		MinWidth:  c.MinWidth,
		MinLength: c.MinLength,
	}
}

// Overlay returns the overlay style. An unparsable color keeps the default
// red, Validate reports it.
func (c *Config) Overlay() overlay.Style {
	style := overlay.DefaultStyle()
	if col, err := overlay.ParseHexColor(c.OverlayColor); err == nil {
		style.Color = col
	}
	style.Alpha = c.OverlayAlpha
	style.Width = c.OverlaySize
	style.Height = c.OverlaySize
	style.Quality = c.JPEGQuality
	return style
}

// Segmentation returns the segmenter settings
func (c *Config) Segmentation() segmentation.Config {
	return segmentation.Config{
		Kind:    c.Segmenter,
		Command: c.SegmentCommand,
		Args:    c.SegmentArgs,
	}
}

// Database returns the sqlite settings
func (c *Config) Database() database.Config {
	return database.Config{Path: c.DBPath}
}

// ImageOutputDir is where overlay reference images are written
func (c *Config) ImageOutputDir() string {
	return filepath.Join(c.OutputDir, "images")
}

// MapOutputDir is where rendered map documents are written
func (c *Config) MapOutputDir() string {
	return filepath.Join(c.OutputDir, "maps")
}

// MetricsPath is where batch commands write their metrics
func (c *Config) MetricsPath() string {
	if c.MetricsFile != "" {
		return c.MetricsFile
	}
	return filepath.Join(c.OutputDir, "metrics", "crackmap.prom")
}

// MapOptions returns the map rendering options
func (c *Config) MapOptions() damagemap.Options {
	opts := damagemap.DefaultOptions()
	opts.ImageDir = c.ImageOutputDir()
	return opts
}
