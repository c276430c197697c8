package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/exifgeo"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/trackpath"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ListImages returns the JPEG and PNG files of dir sorted by name
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// Extractor builds capture records from the EXIF tags of a directory of images
type Extractor struct {
	read   func(path string) (exifgeo.Geotag, error)
	logger *zap.Logger
}

// NewExtractor creates an extractor reading EXIF tags from disk
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{read: exifgeo.ReadFile, logger: logger}
}

// Extract reads every image of dir and returns its capture records in
// chronological order with 1-based sequence numbers. Images without EXIF,
// GPS or a timestamp still get a record.
func (e *Extractor) Extract(ctx context.Context, dir string) ([]models.ImageCaptureRecord, models.CaptureSummary, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, models.CaptureSummary{}, err
	}

	e.logger.Info("extracting capture metadata", zap.String("dir", dir), zap.Int("images", len(paths)))

	records := make([]models.ImageCaptureRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, models.CaptureSummary{}, err
		}
		records = append(records, e.captureRecord(path))
	}

	records = trackpath.Sequence(records)
	summary := models.Summarize(records)

	e.logger.Info("capture metadata extracted",
		zap.Int("total", summary.TotalImages),
		zap.Int("with_gps", summary.WithGPS),
		zap.Int("with_timestamp", summary.WithTimestamp),
	)
	return records, summary, nil
}

func (e *Extractor) captureRecord(path string) models.ImageCaptureRecord {
	name := filepath.Base(path)

	g, err := e.read(path)
	if err != nil {
		e.logger.Debug("no exif data", zap.String("image", name), zap.Error(err))
		return models.NewCaptureRecord(name, path, nil, nil)
	}

	rec := models.NewCaptureRecord(name, path, g.Location(), g.Timestamp)
	if !rec.HasGPS {
		e.logger.Debug("gps not found", zap.String("image", name))
	}
	return rec
}
