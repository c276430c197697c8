package models

// RawCrackInstance is one connected crack component as reported by the quantifier.
// Coordinates use the "(x1,y1)-(x2,y2)" form and Measurement the
// "avg_half_width x max_half_width x length" form, all in pixels.
type RawCrackInstance struct {
	Coordinates string `json:"coordinates"`
	Measurement string `json:"measurement"`
	ClassID     int    `json:"class_id"`
}

// PixelBounds is an axis-aligned bounding box in image pixels
type PixelBounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Area returns the box area in square pixels
func (b PixelBounds) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	return float64(w * h)
}

// ScaledCrackInstance is a crack instance with full widths and physical sizes.
// Pixel fields keep the doubled widths so size filtering stays in one unit.
type ScaledCrackInstance struct {
	Coordinates string       `json:"coordinates"`
	Bounds      *PixelBounds `json:"bounds,omitempty"` // nil when coordinates are unparseable
	ClassID     int          `json:"classId"`

	AvgWidthPX float64 `json:"avgWidthPx"`
	MaxWidthPX float64 `json:"maxWidthPx"`
	LengthPX   float64 `json:"lengthPx"`
	AreaPX     float64 `json:"areaPx"`

	AvgWidthMM float64 `json:"avgWidthMm"`
	MaxWidthMM float64 `json:"maxWidthMm"`
	LengthMM   float64 `json:"lengthMm"`
}

// CrackAggregate summarizes the crack instances of one image
type CrackAggregate struct {
	CrackCount    int     `json:"crackCount"`
	AvgWidthMM    float64 `json:"avgWidthMm"`
	MaxWidthMM    float64 `json:"maxWidthMm"`
	TotalLengthMM float64 `json:"totalLengthMm"`
}
