package measure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// Conversion is the outcome of converting and filtering one image's instances
type Conversion struct {
	Scaled     []models.ScaledCrackInstance // every parseable instance
	Kept       []models.ScaledCrackInstance // instances that passed the size filter
	Skipped    int                          // instances with malformed measurements
	Aggregate  models.CrackAggregate        // over Kept
	Unfiltered models.CrackAggregate        // over Scaled, for instrumentation
}

// HasCracks reports whether any instance survived parsing, before size filtering
func (c Conversion) HasCracks() bool {
	return len(c.Scaled) > 0
}

// Converter rescales raw crack instances into millimeters and filters them
type Converter struct {
	pixelToMM float64
	filter    SizeFilter
	logger    *zap.Logger
}

// NewConverter creates a converter for a fixed pixel to millimeter factor
func NewConverter(pixelToMM float64, thresholds models.SizeThresholds, logger *zap.Logger) (*Converter, error) {
	if !positive(pixelToMM) {
		return nil, fmt.Errorf("%w: pixel to mm factor %v", ErrInvalidCameraConfig, pixelToMM)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		pixelToMM: pixelToMM,
		filter:    NewSizeFilter(thresholds),
		logger:    logger,
	}, nil
}

// PixelToMM returns the conversion factor in use
func (c *Converter) PixelToMM() float64 {
	return c.pixelToMM
}

// Scale converts a single raw instance. Widths are doubled because the
// quantifier reports half-widths.
func (c *Converter) Scale(raw models.RawCrackInstance) (models.ScaledCrackInstance, error) {
	m, err := ParseMeasurement(raw.Measurement)
	if err != nil {
		return models.ScaledCrackInstance{}, err
	}

	inst := models.ScaledCrackInstance{
		Coordinates: raw.Coordinates,
		ClassID:     raw.ClassID,
		AvgWidthPX:  2 * m.AvgHalfWidthPX,
		MaxWidthPX:  2 * m.MaxHalfWidthPX,
		LengthPX:    m.LengthPX,
	}
	inst.AvgWidthMM = inst.AvgWidthPX * c.pixelToMM
	inst.MaxWidthMM = inst.MaxWidthPX * c.pixelToMM
	inst.LengthMM = inst.LengthPX * c.pixelToMM

	if b, err := ParseBounds(raw.Coordinates); err == nil {
		inst.Bounds = &b
		inst.AreaPX = b.Area()
	} else {
		inst.AreaPX = inst.AvgWidthPX * inst.LengthPX
	}

	return inst, nil
}

// Convert scales every parseable instance. Malformed measurements are logged
// and skipped; they never abort the image.
func (c *Converter) Convert(raws []models.RawCrackInstance) ([]models.ScaledCrackInstance, int) {
	scaled := make([]models.ScaledCrackInstance, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		inst, err := c.Scale(raw)
		if err != nil {
			skipped++
			c.logger.Warn("skipping crack instance",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		scaled = append(scaled, inst)
	}
	return scaled, skipped
}

// ConvertAndFilter converts, filters and aggregates one image's instances.
// The reported aggregate covers the filtered instances.
func (c *Converter) ConvertAndFilter(raws []models.RawCrackInstance) Conversion {
	scaled, skipped := c.Convert(raws)
	kept := c.filter.Apply(scaled)

	return Conversion{
		Scaled:     scaled,
		Kept:       kept,
		Skipped:    skipped,
		Aggregate:  Aggregate(kept),
		Unfiltered: Aggregate(scaled),
	}
}
