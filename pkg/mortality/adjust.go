package mortality

import (
	"math"

	"github.com/ampedlife/amped/pkg/health"
)

// baselineAge anchors the adjustment ratio: rates at or below the age-30 rate
// leave impact unchanged, higher rates damp it on a square-root scale.
const baselineAge = 30

// DaysPerYear is the calendar constant used throughout the engine.
const DaysPerYear = 365.25

// segmentYears is the decay-integration window size.
const segmentYears = 5.0

// Decay rates per metric category, in fraction of effect lost per future
// year. Effort-dependent behaviors erode fastest, addiction patterns
// slowest.
var decayRates = map[health.Category]float64{
	health.CategoryEffort:        0.040,
	health.CategoryAddiction:     0.012,
	health.CategoryPhysiological: 0.025,
	health.CategoryLifestyle:     0.030,
}

// AggregateDecayRate blends the category rates for profile-level totals,
// where per-metric attribution has already been summed away.
const AggregateDecayRate = 0.028

// DecayRate returns the annual decay rate for a metric's category.
func DecayRate(t health.MetricType) float64 {
	if r, ok := decayRates[health.CategoryOf(t)]; ok {
		return r
	}
	return AggregateDecayRate
}

// AdjustDaily scales a daily impact by sqrt(baselineRate / ageRate), floored
// at the baseline so the ratio never exceeds 1. Impact magnitude tracks
// current mortality risk sublinearly rather than one-for-one.
func AdjustDaily(daily float64, age int, gender health.Gender) float64 {
	ageRate := Rate(age, gender)
	base := Rate(baselineAge, gender)
	return daily * math.Sqrt(base/math.Max(ageRate, base))
}

// IntegrateDecay accumulates a steady daily impact over a future horizon,
// eroding it exponentially. The horizon is walked in 5-year segments with
// the decay factor evaluated at each segment midpoint; the last segment may
// be partial. The result is total lifespan minutes over the horizon.
func IntegrateDecay(dailyMinutes, decayRate, horizonYears float64) float64 {
	if horizonYears <= 0 || dailyMinutes == 0 {
		return 0
	}
	var total float64
	for start := 0.0; start < horizonYears; start += segmentYears {
		seg := math.Min(segmentYears, horizonYears-start)
		mid := start + seg/2
		total += dailyMinutes * math.Exp(-decayRate*mid) * seg * DaysPerYear
	}
	return total
}
