// Package measure converts pixel-space crack measurements into millimeters
// using a pinhole camera model, filters instances by size and aggregates them
// per image.
package measure

import (
	"errors"
	"fmt"
	"math"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

var (
	// ErrInvalidCameraConfig is returned when an intrinsic used by the pinhole model is not positive
	ErrInvalidCameraConfig = errors.New("invalid camera config")
	// ErrInvalidDistance is returned for a non-positive shooting distance
	ErrInvalidDistance = errors.New("invalid shooting distance")
)

// ValidateIntrinsics checks the camera terms of the pinhole relation
func ValidateIntrinsics(cam models.CameraIntrinsics) error {
	switch {
	case !positive(cam.SensorWidthMM):
		return fmt.Errorf("%w: sensor width %v mm", ErrInvalidCameraConfig, cam.SensorWidthMM)
	case !positive(cam.FocalLengthMM):
		return fmt.Errorf("%w: focal length %v mm", ErrInvalidCameraConfig, cam.FocalLengthMM)
	case cam.ImageWidthPX <= 0:
		return fmt.Errorf("%w: image width %d px", ErrInvalidCameraConfig, cam.ImageWidthPX)
	case !positive(cam.SRScale):
		return fmt.Errorf("%w: super-resolution scale %v", ErrInvalidCameraConfig, cam.SRScale)
	}
	return nil
}

// PixelToMM returns the ground sampling distance in mm per pixel:
//
//	sensor_width * distance / (focal_length * image_width * sr_scale)
//
// Super-resolution multiplies the pixel count without changing the imaged
// footprint, so the scale divides the result.
func PixelToMM(shootingDistanceMM float64, cam models.CameraIntrinsics) (float64, error) {
	if err := ValidateIntrinsics(cam); err != nil {
		return 0, err
	}
	if !positive(shootingDistanceMM) {
		return 0, fmt.Errorf("%w: %v mm", ErrInvalidDistance, shootingDistanceMM)
	}

	return (cam.SensorWidthMM * shootingDistanceMM) /
		(cam.FocalLengthMM * float64(cam.ImageWidthPX) * cam.SRScale), nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
