package models

// CameraIntrinsics describes the pinhole camera used for the capture run
type CameraIntrinsics struct {
	SensorWidthMM  float64 `json:"sensorWidthMm"`
	SensorHeightMM float64 `json:"sensorHeightMm"`
	FocalLengthMM  float64 `json:"focalLengthMm"`
	ImageWidthPX   int     `json:"imageWidthPx"`
	ImageHeightPX  int     `json:"imageHeightPx"`
	SRScale        float64 `json:"srScale"` // super-resolution upscale factor, 1 when disabled
}

// SizeThresholds holds the per-instance minimum sizes in pixel units.
// A zero threshold disables that dimension.
type SizeThresholds struct {
	MinArea   float64 `json:"minArea"`
	MinWidth  float64 `json:"minWidth"`
	MinLength float64 `json:"minLength"`
}
