package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

const runTimeLayout = time.RFC3339

// RunRepository handles database operations for batch runs
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run before its records are written
func (r *RunRepository) Create(ctx context.Context, run models.BatchRun) error {
	query := `INSERT INTO batch_runs (id, kind, input_dir, shooting_distance_mm, pixel_to_mm, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Kind, run.InputDir, run.ShootingDistanceMM, run.PixelToMM,
		run.StartedAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Finish stores the batch summary of a run
func (r *RunRepository) Finish(ctx context.Context, id string, summary models.CaptureSummary, finishedAt time.Time) error {
	query := `UPDATE batch_runs
		SET total_images = ?, with_gps = ?, with_timestamp = ?, with_damage = ?, failed = ?, finished_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		summary.TotalImages, summary.WithGPS, summary.WithTimestamp, summary.WithDamage, summary.Failed,
		finishedAt.UTC().Format(runTimeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

const runColumns = `id, kind, input_dir, shooting_distance_mm, pixel_to_mm,
	total_images, with_gps, with_timestamp, with_damage, failed, started_at, finished_at`

// Latest returns the most recently started run of a kind, or nil when none exists
func (r *RunRepository) Latest(ctx context.Context, kind string) (*models.BatchRun, error) {
	query := `SELECT ` + runColumns + ` FROM batch_runs WHERE kind = ?
		ORDER BY started_at DESC, rowid DESC LIMIT 1`
	return r.latest(ctx, query, kind)
}

// LatestForInput returns the most recent run of a kind over inputDir, or nil
func (r *RunRepository) LatestForInput(ctx context.Context, kind, inputDir string) (*models.BatchRun, error) {
	query := `SELECT ` + runColumns + ` FROM batch_runs WHERE kind = ? AND input_dir = ?
		ORDER BY started_at DESC, rowid DESC LIMIT 1`
	return r.latest(ctx, query, kind, inputDir)
}

func (r *RunRepository) latest(ctx context.Context, query string, args ...interface{}) (*models.BatchRun, error) {
	var run models.BatchRun
	var startedAt string
	var finishedAt sql.NullString
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&run.ID, &run.Kind, &run.InputDir, &run.ShootingDistanceMM, &run.PixelToMM,
		&run.Summary.TotalImages, &run.Summary.WithGPS, &run.Summary.WithTimestamp,
		&run.Summary.WithDamage, &run.Summary.Failed, &startedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	if run.StartedAt, err = time.Parse(runTimeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid run start time %q: %w", startedAt, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(runTimeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid run finish time %q: %w", finishedAt.String, err)
		}
		run.FinishedAt = &t
	}

	return &run, nil
}
