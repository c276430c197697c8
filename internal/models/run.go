package models

import "time"

// Run kinds
const (
	RunKindExtract = "extract"
	RunKindDetect  = "detect"
)

// BatchRun is one invocation of the extraction or detection batch
type BatchRun struct {
	ID                 string         `json:"id" db:"id"`
	Kind               string         `json:"kind" db:"kind"`
	InputDir           string         `json:"inputDir" db:"input_dir"`
	ShootingDistanceMM float64        `json:"shootingDistanceMm,omitempty" db:"shooting_distance_mm"`
	PixelToMM          float64        `json:"pixelToMm,omitempty" db:"pixel_to_mm"`
	Summary            CaptureSummary `json:"summary"`
	StartedAt          time.Time      `json:"startedAt" db:"started_at"`
	FinishedAt         *time.Time     `json:"finishedAt,omitempty" db:"finished_at"`
}
