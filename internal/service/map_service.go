package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/damagemap"
	"github.com/jengzang/crackmap-backend-go/internal/metrics"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/repository"
	"github.com/jengzang/crackmap-backend-go/internal/spatial"
	"github.com/jengzang/crackmap-backend-go/internal/trackpath"
)

// ErrNoDetectRun is returned when no detection run has been stored yet
var ErrNoDetectRun = errors.New("no detection run found")

// PathResponse is the travel path through every GPS-tagged capture
type PathResponse struct {
	RunID        string       `json:"runId"`
	Points       [][2]float64 `json:"points"`
	LengthMeters float64      `json:"lengthMeters"`
	Drawable     bool         `json:"drawable"`
	Bounds       [4]float64   `json:"bounds"` // minLat, minLon, maxLat, maxLon
}

// MapService reads the stored records and renders map documents
type MapService struct {
	runs     *repository.RunRepository
	damage   *repository.DamageRepository
	captures *repository.CaptureRepository
	builder  *damagemap.Builder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewMapService creates a new map service. m may be nil.
func NewMapService(db *sql.DB, opts damagemap.Options, m *metrics.Metrics, logger *zap.Logger) *MapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapService{
		runs:     repository.NewRunRepository(db),
		damage:   repository.NewDamageRepository(db),
		captures: repository.NewCaptureRepository(db),
		builder:  damagemap.NewBuilder(opts, logger),
		metrics:  m,
		logger:   logger,
	}
}

// Damage returns the damage records of the latest detection run
func (s *MapService) Damage(ctx context.Context) (*models.DamageRecordsResponse, error) {
	run, err := s.runs.Latest(ctx, models.RunKindDetect)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNoDetectRun
	}
	records, err := s.damage.ListByRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &models.DamageRecordsResponse{RunID: run.ID, Data: records, Total: len(records)}, nil
}

// DamageByID returns one damage record, or nil when it does not exist
func (s *MapService) DamageByID(ctx context.Context, id int64) (*models.ImageDamageRecord, error) {
	return s.damage.GetByID(ctx, id)
}

// Captures returns the capture records used for the travel path. The run id
// is empty when no run exists.
func (s *MapService) Captures(ctx context.Context) (string, []models.ImageCaptureRecord, error) {
	run, err := s.captureRun(ctx)
	if err != nil {
		return "", nil, err
	}
	if run == nil {
		return "", []models.ImageCaptureRecord{}, nil
	}
	records, err := s.captures.ListByRun(ctx, run.ID)
	if err != nil {
		return "", nil, err
	}
	return run.ID, records, nil
}

// captureRun picks the run whose captures describe the current damage: the
// latest extract run over the latest detect run's input directory, else that
// detect run. Without any detect run the latest extract run is used.
func (s *MapService) captureRun(ctx context.Context) (*models.BatchRun, error) {
	detect, err := s.runs.Latest(ctx, models.RunKindDetect)
	if err != nil {
		return nil, err
	}
	if detect == nil {
		return s.runs.Latest(ctx, models.RunKindExtract)
	}

	extract, err := s.runs.LatestForInput(ctx, models.RunKindExtract, detect.InputDir)
	if err != nil {
		return nil, err
	}
	if extract != nil {
		return extract, nil
	}
	return detect, nil
}

// Path returns the chronological travel path
func (s *MapService) Path(ctx context.Context) (*PathResponse, error) {
	runID, records, err := s.Captures(ctx)
	if err != nil {
		return nil, err
	}
	path := trackpath.BuildPath(records)
	resp := &PathResponse{
		RunID:        runID,
		Points:       path.Coordinates(),
		LengthMeters: path.LengthMeters(),
		Drawable:     path.Drawable(),
	}
	resp.Bounds[0], resp.Bounds[1], resp.Bounds[2], resp.Bounds[3] = spatial.BoundingBox(path)
	return resp, nil
}

// RenderTotal renders the composite map. It fails with
// damagemap.ErrEmptyDamageSet when no damage was recorded.
func (s *MapService) RenderTotal(ctx context.Context) (*damagemap.Document, error) {
	var damage []models.ImageDamageRecord
	resp, err := s.Damage(ctx)
	switch {
	case errors.Is(err, ErrNoDetectRun):
	case err != nil:
		return nil, err
	default:
		damage = resp.Data
	}

	_, captures, err := s.Captures(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := s.builder.RenderTotal(damage, captures)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMapRender("total", time.Since(start).Seconds())
	return doc, nil
}

// RenderSingle renders the map of one damage record. A zero id selects the
// first record of the latest run. The document is nil when the record does
// not exist.
func (s *MapService) RenderSingle(ctx context.Context, id int64) (*damagemap.Document, error) {
	var rec *models.ImageDamageRecord
	if id == 0 {
		resp, err := s.Damage(ctx)
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			return nil, damagemap.ErrEmptyDamageSet
		}
		rec = &resp.Data[0]
	} else {
		var err error
		if rec, err = s.damage.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
	}

	start := time.Now()
	doc, err := s.builder.RenderSingle(*rec)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMapRender("single", time.Since(start).Seconds())
	return doc, nil
}

// WriteMaps renders both maps into dir as total_map.html and single_map.html.
// An empty damage set skips both documents and is reported as
// damagemap.ErrEmptyDamageSet.
func (s *MapService) WriteMaps(ctx context.Context, dir string) ([]string, error) {
	total, err := s.RenderTotal(ctx)
	if err != nil {
		return nil, err
	}
	single, err := s.RenderSingle(ctx, 0)
	if err != nil {
		return nil, err
	}

	docs := []struct {
		name string
		doc  *damagemap.Document
	}{
		{"total_map.html", total},
		{"single_map.html", single},
	}

	var written []string
	for _, d := range docs {
		path := filepath.Join(dir, d.name)
		if err := d.doc.Save(path); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", d.name, err)
		}
		s.logger.Info("map saved", zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}
