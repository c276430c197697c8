package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/crackmap-backend-go/internal/database"
	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// CaptureRepository handles database operations for image capture records
type CaptureRepository struct {
	db *sql.DB
}

// NewCaptureRepository creates a new capture repository
func NewCaptureRepository(db *sql.DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// InsertBatch stores the capture records of a run in one transaction.
// Records keep their own sequence numbers; GPS and timestamp columns are
// NULL when the record lacks them.
func (r *CaptureRepository) InsertBatch(ctx context.Context, runID string, records []models.ImageCaptureRecord) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO capture_records
			(run_id, sequence, image_name, image_path, latitude, longitude, captured_at, has_gps, has_timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			var lat, lon sql.NullFloat64
			if rec.HasGPS {
				lat = sql.NullFloat64{Float64: rec.Latitude, Valid: true}
				lon = sql.NullFloat64{Float64: rec.Longitude, Valid: true}
			}
			var ts sql.NullString
			if rec.Timestamp != nil {
				ts = sql.NullString{String: models.FormatTimestamp(rec.Timestamp), Valid: true}
			}

			_, err := stmt.ExecContext(ctx,
				runID, rec.Sequence, rec.ImageName, rec.ImagePath, lat, lon, ts,
				rec.HasGPS, rec.Timestamp != nil,
			)
			if err != nil {
				return fmt.Errorf("failed to insert capture record %s: %w", rec.ImageName, err)
			}
		}
		return nil
	})
}

// ListByRun returns the capture records of a run in sequence order
func (r *CaptureRepository) ListByRun(ctx context.Context, runID string) ([]models.ImageCaptureRecord, error) {
	query := `SELECT id, run_id, sequence, image_name, image_path, latitude, longitude, captured_at
		FROM capture_records WHERE run_id = ? ORDER BY sequence, id`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query capture records: %w", err)
	}
	defer rows.Close()

	records := []models.ImageCaptureRecord{}
	for rows.Next() {
		var (
			id       int64
			run      string
			seq      int
			name     string
			path     string
			lat, lon sql.NullFloat64
			ts       sql.NullString
		)
		if err := rows.Scan(&id, &run, &seq, &name, &path, &lat, &lon, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan capture record: %w", err)
		}

		var loc *models.Location
		if lat.Valid && lon.Valid {
			loc = &models.Location{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		var captured *time.Time
		if ts.Valid {
			captured, _ = models.ParseTimestamp(ts.String)
		}

		rec := models.NewCaptureRecord(name, path, loc, captured)
		rec.ID = id
		rec.RunID = run
		rec.Sequence = seq
		records = append(records, rec)
	}

	return records, rows.Err()
}
