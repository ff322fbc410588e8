package forecast

import "github.com/aouyang1/go-salesforecaster/models"

const (
	// DefaultSeasonalPeriod is the yearly cycle of monthly sales
	DefaultSeasonalPeriod = 12

	// FullCycleObservations is the series length at which two full default cycles are available
	FullCycleObservations = 2 * DefaultSeasonalPeriod
)

// SeasonalPeriod picks the seasonal cycle length for a series of n observations. Series with at
// least two full yearly cycles use the yearly period, shorter ones use half their length so at
// least two cycles are still observed, never going below the smallest usable period.
func SeasonalPeriod(n int) int {
	if n >= FullCycleObservations {
		return DefaultSeasonalPeriod
	}
	return max(models.MinSeasonalPeriod, n/2)
}
