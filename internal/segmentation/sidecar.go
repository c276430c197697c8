package segmentation

import (
	"context"
	"path/filepath"
)

// SidecarSegmenter reads output the model wrote ahead of time next to each
// image as <image>.cracks.json
type SidecarSegmenter struct{}

// NewSidecarSegmenter creates a SidecarSegmenter
func NewSidecarSegmenter() *SidecarSegmenter {
	return &SidecarSegmenter{}
}

// Segment loads the sidecar file for imagePath
func (s *SidecarSegmenter) Segment(ctx context.Context, imagePath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readResultFile(imagePath+SidecarSuffix, filepath.Dir(imagePath))
}
