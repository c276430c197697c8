package measure

import (
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/stats"
)

// Aggregate summarizes instances into per-image statistics.
// An empty input yields a zero aggregate.
func Aggregate(instances []models.ScaledCrackInstance) models.CrackAggregate {
	if len(instances) == 0 {
		return models.CrackAggregate{}
	}

	avgWidths := make([]float64, len(instances))
	maxWidths := make([]float64, len(instances))
	lengths := make([]float64, len(instances))
	for i, inst := range instances {
		avgWidths[i] = inst.AvgWidthMM
		maxWidths[i] = inst.MaxWidthMM
		lengths[i] = inst.LengthMM
	}

	return models.CrackAggregate{
		CrackCount:    len(instances),
		AvgWidthMM:    stats.Mean(avgWidths),
		MaxWidthMM:    stats.Max(maxWidths),
		TotalLengthMM: stats.Sum(lengths),
	}
}
