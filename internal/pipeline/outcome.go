package pipeline

import (
	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// Status is the per-image result of a detection run
type Status string

const (
	// StatusRecorded means a damage record was produced
	StatusRecorded Status = "recorded"
	// StatusNoCracks means segmentation found no usable crack instance
	StatusNoCracks Status = "no_cracks"
	// StatusFiltered means every instance fell below the size thresholds
	StatusFiltered Status = "filtered"
	// StatusNoLocation means cracks were found but no GPS position exists
	StatusNoLocation Status = "no_location"
	// StatusFailed means the image could not be processed
	StatusFailed Status = "failed"
)

// ImageOutcome is the result of processing one image. Failures are carried
// in Err instead of aborting the batch.
type ImageOutcome struct {
	ImageName string
	Status    Status
	Capture   models.ImageCaptureRecord
	Damage    *models.ImageDamageRecord // set only for StatusRecorded
	Detected  int                       // raw instances from segmentation
	Kept      int                       // instances that passed the size filter
	Skipped   int                       // malformed instances
	Err       error
}

// BatchReport collects every outcome of a run
type BatchReport struct {
	RunID     string
	PixelToMM float64
	Outcomes  []ImageOutcome
	Captures  []models.ImageCaptureRecord // all images, chronological with sequence numbers
	Damage    []models.ImageDamageRecord  // scan order with sequence numbers
	Summary   models.CaptureSummary
}

// Count returns the number of outcomes with the given status
func (r *BatchReport) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// AllFailed reports whether a non-empty batch failed on every image
func (r *BatchReport) AllFailed() bool {
	return len(r.Outcomes) > 0 && r.Count(StatusFailed) == len(r.Outcomes)
}
