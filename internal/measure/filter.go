package measure

import "github.com/jengzang/crackmap-backend-go/internal/models"

// SizeFilter drops crack instances below the configured pixel-space minimums.
// Area is compared against the bounding-box area, width against the full
// average width and length against the skeleton length.
type SizeFilter struct {
	thresholds models.SizeThresholds
}

// NewSizeFilter creates a size filter; zero thresholds disable their dimension
func NewSizeFilter(t models.SizeThresholds) SizeFilter {
	return SizeFilter{thresholds: t}
}

// Keep reports whether an instance passes every enabled threshold
func (f SizeFilter) Keep(inst models.ScaledCrackInstance) bool {
	t := f.thresholds
	if t.MinArea > 0 && inst.AreaPX < t.MinArea {
		return false
	}
	if t.MinWidth > 0 && inst.AvgWidthPX < t.MinWidth {
		return false
	}
	if t.MinLength > 0 && inst.LengthPX < t.MinLength {
		return false
	}
	return true
}

// Apply returns the instances that pass the filter, preserving order
func (f SizeFilter) Apply(instances []models.ScaledCrackInstance) []models.ScaledCrackInstance {
	kept := make([]models.ScaledCrackInstance, 0, len(instances))
	for _, inst := range instances {
		if f.Keep(inst) {
			kept = append(kept, inst)
		}
	}
	return kept
}
