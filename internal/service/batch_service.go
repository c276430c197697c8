package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/metadata"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/pipeline"
	"github.com/jengzang/crackmap-backend-go/internal/repository"
)

// BatchService runs metadata extraction and crack detection and persists
// their results
type BatchService struct {
	runs     *repository.RunRepository
	damage   *repository.DamageRepository
	captures *repository.CaptureRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewBatchService creates a new batch service
func NewBatchService(db *sql.DB, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		runs:     repository.NewRunRepository(db),
		damage:   repository.NewDamageRepository(db),
		captures: repository.NewCaptureRepository(db),
		logger:   logger,
		now:      time.Now,
	}
}

// Extract reads the capture metadata of every image in dir and stores it as
// a new extract run. When jsonPath is set the records are also written there.
func (s *BatchService) Extract(ctx context.Context, dir, jsonPath string) (*models.BatchRun, []models.ImageCaptureRecord, error) {
	run := models.BatchRun{
		ID:        uuid.NewString(),
		Kind:      models.RunKindExtract,
		InputDir:  dir,
		StartedAt: s.now(),
	}

	records, summary, err := metadata.NewExtractor(s.logger).Extract(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	for i := range records {
		records[i].RunID = run.ID
	}

	// A failed JSON write stores no run
	if jsonPath != "" {
		if err := metadata.SaveJSON(jsonPath, records); err != nil {
			return nil, nil, err
		}
		s.logger.Info("capture metadata saved", zap.String("path", jsonPath))
	}

	if err := s.runs.Create(ctx, run); err != nil {
		return nil, nil, err
	}
	if err := s.captures.InsertBatch(ctx, run.ID, records); err != nil {
		return nil, nil, err
	}
	if err := s.finish(ctx, &run, summary); err != nil {
		return nil, nil, err
	}
	return &run, records, nil
}

// Detect runs the pipeline over dir and stores the damage and capture
// records of the batch
func (s *BatchService) Detect(ctx context.Context, p *pipeline.Pipeline, dir string, shootingDistanceMM float64) (*pipeline.BatchReport, error) {
	started := s.now()
	report, err := p.RunDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	run := models.BatchRun{
		ID:                 report.RunID,
		Kind:               models.RunKindDetect,
		InputDir:           dir,
		ShootingDistanceMM: shootingDistanceMM,
		PixelToMM:          report.PixelToMM,
		StartedAt:          started,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	if err := s.damage.InsertBatch(ctx, run.ID, report.Damage); err != nil {
		return nil, err
	}
	if err := s.captures.InsertBatch(ctx, run.ID, report.Captures); err != nil {
		return nil, err
	}
	if err := s.finish(ctx, &run, report.Summary); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *BatchService) finish(ctx context.Context, run *models.BatchRun, summary models.CaptureSummary) error {
	finished := s.now()
	if err := s.runs.Finish(ctx, run.ID, summary, finished); err != nil {
		return fmt.Errorf("failed to finish %s run: %w", run.Kind, err)
	}
	run.Summary = summary
	run.FinishedAt = &finished
	return nil
}

// MetadataIndex builds the capture index consulted before EXIF. The JSON
// file wins when set, otherwise the latest extract run is used. With neither
// the index is empty.
func (s *BatchService) MetadataIndex(ctx context.Context, jsonPath string) (*metadata.Index, error) {
	if jsonPath != "" {
		records, err := metadata.LoadJSON(jsonPath)
		if err != nil {
			return nil, err
		}
		s.logger.Info("capture index loaded", zap.String("source", jsonPath), zap.Int("images", len(records)))
		return metadata.NewIndex(records), nil
	}

	run, err := s.runs.Latest(ctx, models.RunKindExtract)
	if err != nil {
		return nil, err
	}
	if run == nil {
		s.logger.Info("no capture index, using EXIF only")
		return metadata.NewIndex(nil), nil
	}
	records, err := s.captures.ListByRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("capture index loaded", zap.String("run_id", run.ID), zap.Int("images", len(records)))
	return metadata.NewIndex(records), nil
}
