// Package pipeline runs crack detection over a batch of images: segmentation,
// millimeter conversion, size filtering, location lookup and overlay output.
// Images are processed sequentially and a failure only affects its own image.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/measure"
	"github.com/jengzang/crackmap-backend-go/internal/metadata"
	"github.com/jengzang/crackmap-backend-go/internal/metrics"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/overlay"
	"github.com/jengzang/crackmap-backend-go/internal/segmentation"
	"github.com/jengzang/crackmap-backend-go/internal/trackpath"
)

// Options holds the immutable settings of one run
type Options struct {
	ShootingDistanceMM float64
	Camera             models.CameraIntrinsics
	Thresholds         models.SizeThresholds
	Overlay            overlay.Style
	ImageOutputDir     string // empty skips overlay rendering
}

// Pipeline processes images one at a time
type Pipeline struct {
	opts      Options
	converter *measure.Converter
	segmenter segmentation.Segmenter
	resolver  metadata.Resolver
	metrics   *metrics.Metrics
	logger    *zap.Logger
	render    func(src, mask, dst string, style overlay.Style) error
}

// New validates the camera settings and builds a pipeline. m may be nil.
func New(opts Options, seg segmentation.Segmenter, resolver metadata.Resolver, m *metrics.Metrics, logger *zap.Logger) (*Pipeline, error) {
	if seg == nil || resolver == nil {
		return nil, errors.New("pipeline needs a segmenter and a location resolver")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pixelToMM, err := measure.PixelToMM(opts.ShootingDistanceMM, opts.Camera)
	if err != nil {
		return nil, err
	}
	converter, err := measure.NewConverter(pixelToMM, opts.Thresholds, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		opts:      opts,
		converter: converter,
		segmenter: seg,
		resolver:  resolver,
		metrics:   m,
		logger:    logger,
		render:    overlay.Render,
	}, nil
}

// PixelToMM returns the conversion factor of the run
func (p *Pipeline) PixelToMM() float64 {
	return p.converter.PixelToMM()
}

// RunDir processes every image in dir
func (p *Pipeline) RunDir(ctx context.Context, dir string) (*BatchReport, error) {
	paths, err := metadata.ListImages(dir)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, paths)
}

// Run processes the images in order. The only error returned is context
// cancellation; per-image failures are recorded in the report.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*BatchReport, error) {
	report := &BatchReport{
		RunID:     uuid.NewString(),
		PixelToMM: p.PixelToMM(),
		Outcomes:  make([]ImageOutcome, 0, len(paths)),
	}
	p.metrics.SetPixelToMM(report.PixelToMM)

	p.logger.Info("detection started",
		zap.String("run_id", report.RunID),
		zap.Int("images", len(paths)),
		zap.Float64("pixel_to_mm", report.PixelToMM),
	)

	captures := make([]models.ImageCaptureRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := p.ProcessImage(ctx, path)
		p.metrics.ObserveImage(string(out.Status), out.Detected, out.Kept)

		out.Capture.RunID = report.RunID
		captures = append(captures, out.Capture)
		if out.Damage != nil {
			out.Damage.RunID = report.RunID
			out.Damage.Sequence = len(report.Damage) + 1
			report.Damage = append(report.Damage, *out.Damage)
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	report.Captures = trackpath.Sequence(captures)
	report.Summary = models.Summarize(report.Captures)
	report.Summary.WithDamage = len(report.Damage)
	report.Summary.Failed = report.Count(StatusFailed)

	p.logger.Info("detection finished",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Summary.TotalImages),
		zap.Int("with_gps", report.Summary.WithGPS),
		zap.Int("with_timestamp", report.Summary.WithTimestamp),
		zap.Int("with_damage", report.Summary.WithDamage),
		zap.Int("failed", report.Summary.Failed),
	)
	return report, nil
}

// ProcessImage runs one image through the pipeline. Every image gets a
// capture record; a damage record requires at least one crack surviving the
// size filter and a resolved location.
func (p *Pipeline) ProcessImage(ctx context.Context, path string) ImageOutcome {
	name := filepath.Base(path)
	log := p.logger.With(zap.String("image", name))

	var loc *models.Location
	if l, err := p.resolver.Resolve(name, path); err == nil {
		loc = &l
	} else if !errors.Is(err, metadata.ErrLocationNotFound) {
		log.Debug("location lookup failed", zap.Error(err))
	}

	out := ImageOutcome{
		ImageName: name,
		Capture:   models.NewCaptureRecord(name, path, loc, nil),
	}

	res, err := p.segmenter.Segment(ctx, path)
	if err != nil {
		log.Warn("segmentation failed", zap.Error(err))
		out.Status = StatusFailed
		out.Err = fmt.Errorf("segment %s: %w", name, err)
		return out
	}

	conv := p.converter.ConvertAndFilter(res.Instances)
	out.Detected = len(res.Instances)
	out.Kept = len(conv.Kept)
	out.Skipped = conv.Skipped

	if !conv.HasCracks() {
		log.Debug("no cracks detected", zap.Int("skipped", conv.Skipped))
		out.Status = StatusNoCracks
		return out
	}

	if loc == nil {
		log.Warn("gps not found, skipping damage record", zap.Int("cracks", len(conv.Scaled)))
		out.Status = StatusNoLocation
		out.Err = fmt.Errorf("%w: %s", metadata.ErrLocationNotFound, name)
		return out
	}

	if len(conv.Kept) == 0 {
		log.Info("all cracks below size thresholds", zap.Int("cracks", len(conv.Scaled)))
		out.Status = StatusFiltered
		return out
	}

	rec := &models.ImageDamageRecord{
		ImageName:     name,
		ImagePath:     p.writeOverlay(log, path, res.MaskPath),
		Latitude:      loc.Latitude,
		Longitude:     loc.Longitude,
		Timestamp:     out.Capture.Timestamp,
		CrackCount:    conv.Aggregate.CrackCount,
		AvgWidthMM:    conv.Aggregate.AvgWidthMM,
		MaxWidthMM:    conv.Aggregate.MaxWidthMM,
		TotalLengthMM: conv.Aggregate.TotalLengthMM,
	}

	log.Info("damage recorded",
		zap.Int("cracks", rec.CrackCount),
		zap.Int("filtered_out", len(conv.Scaled)-len(conv.Kept)),
		zap.Float64("avg_width_mm", rec.AvgWidthMM),
		zap.Float64("max_width_mm", rec.MaxWidthMM),
		zap.Float64("total_length_mm", rec.TotalLengthMM),
	)

	out.Status = StatusRecorded
	out.Damage = rec
	return out
}

// writeOverlay renders the reference image and returns its name relative to
// the image output directory. A render failure is logged and the expected
// name is kept; the map omits the missing image.
func (p *Pipeline) writeOverlay(log *zap.Logger, src, mask string) string {
	name := overlay.OutputName(filepath.Base(src))
	if p.opts.ImageOutputDir == "" {
		return name
	}
	if err := p.render(src, mask, filepath.Join(p.opts.ImageOutputDir, name), p.opts.Overlay); err != nil {
		log.Warn("failed to write overlay image", zap.Error(err))
	}
	return name
}
