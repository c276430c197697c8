package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/crackmap-backend-go/internal/database"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/stats"
)

const damageColumns = `id, run_id, sequence, image_name, image_path, latitude, longitude,
	captured_at, crack_count, avg_width_mm, max_width_mm, total_length_mm`

// DamageRepository handles database operations for image damage records
type DamageRepository struct {
	db *sql.DB
}

// NewDamageRepository creates a new damage repository
func NewDamageRepository(db *sql.DB) *DamageRepository {
	return &DamageRepository{db: db}
}

// InsertBatch stores the damage records of a run in one transaction.
// Sequence numbers follow slice order starting at 1; measurements are rounded to 2 decimals.
func (r *DamageRepository) InsertBatch(ctx context.Context, runID string, records []models.ImageDamageRecord) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO damage_records
			(run_id, sequence, image_name, image_path, latitude, longitude, captured_at,
			 crack_count, avg_width_mm, max_width_mm, total_length_mm)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, rec := range records {
			_, err := stmt.ExecContext(ctx,
				runID, i+1, rec.ImageName, rec.ImagePath, rec.Latitude, rec.Longitude,
				models.FormatTimestamp(rec.Timestamp), rec.CrackCount,
				stats.Round(rec.AvgWidthMM, 2), stats.Round(rec.MaxWidthMM, 2), stats.Round(rec.TotalLengthMM, 2),
			)
			if err != nil {
				return fmt.Errorf("failed to insert damage record %s: %w", rec.ImageName, err)
			}
		}
		return nil
	})
}

// ListByRun returns the damage records of a run in sequence order
func (r *DamageRepository) ListByRun(ctx context.Context, runID string) ([]models.ImageDamageRecord, error) {
	query := `SELECT ` + damageColumns + ` FROM damage_records WHERE run_id = ? ORDER BY sequence`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query damage records: %w", err)
	}
	defer rows.Close()

	records := []models.ImageDamageRecord{}
	for rows.Next() {
		rec, err := scanDamage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// GetByID retrieves a single damage record, or nil when it does not exist
func (r *DamageRepository) GetByID(ctx context.Context, id int64) (*models.ImageDamageRecord, error) {
	query := `SELECT ` + damageColumns + ` FROM damage_records WHERE id = ?`

	rec, err := scanDamage(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDamage(s scanner) (*models.ImageDamageRecord, error) {
	var rec models.ImageDamageRecord
	var capturedAt string
	err := s.Scan(
		&rec.ID, &rec.RunID, &rec.Sequence, &rec.ImageName, &rec.ImagePath,
		&rec.Latitude, &rec.Longitude, &capturedAt, &rec.CrackCount,
		&rec.AvgWidthMM, &rec.MaxWidthMM, &rec.TotalLengthMM,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan damage record: %w", err)
	}

	// Stored timestamps are written by FormatTimestamp; anything else reads as absent
	rec.Timestamp, _ = models.ParseTimestamp(capturedAt)
	return &rec, nil
}
