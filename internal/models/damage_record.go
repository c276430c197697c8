package models

import "time"

// ImageDamageRecord is the persisted per-image crack summary
type ImageDamageRecord struct {
	ID            int64      `json:"id" db:"id"`
	RunID         string     `json:"runId" db:"run_id"`
	Sequence      int        `json:"sequence" db:"sequence"`
	ImageName     string     `json:"imageName" db:"image_name"`
	ImagePath     string     `json:"imagePath" db:"image_path"` // overlay output, relative to the image output dir
	Latitude      float64    `json:"latitude" db:"latitude"`
	Longitude     float64    `json:"longitude" db:"longitude"`
	Timestamp     *time.Time `json:"timestamp,omitempty" db:"captured_at"`
	CrackCount    int        `json:"crackCount" db:"crack_count"`
	AvgWidthMM    float64    `json:"avgWidthMm" db:"avg_width_mm"`
	MaxWidthMM    float64    `json:"maxWidthMm" db:"max_width_mm"`
	TotalLengthMM float64    `json:"totalLengthMm" db:"total_length_mm"`
}

// DamageRecordsResponse wraps the damage records of one run
type DamageRecordsResponse struct {
	RunID string              `json:"runId"`
	Data  []ImageDamageRecord `json:"data"`
	Total int                 `json:"total"`
}
