// Package projection turns a weighted daily impact rate into a bounded
// life-expectancy estimate by integrating behavior decay over the remaining
// horizon.
package projection

import (
	"math"
	"time"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/mortality"
)

const (
	minutesPerYear = mortality.DaysPerYear * 1440

	// ConfidenceIntervalYears is the fixed half-width reported until
	// per-calculation uncertainty lands.
	ConfidenceIntervalYears = 2.0

	maxExpectancyYears = 120
)

// LifeProjection is the engine's long-horizon output.
type LifeProjection struct {
	BaselineYears           float64 `json:"baseline_years"`
	AdjustedYears           float64 `json:"adjusted_years"`
	ConfidencePercentage    float64 `json:"confidence_percentage"`
	ConfidenceIntervalYears float64 `json:"confidence_interval_years"`
}

// Project integrates the daily impact over the profile's remaining years
// with aggregate decay, weights it by evidence quality, and clamps the
// result to [age+1, 120].
func Project(p health.Profile, weightedDailyMinutes, evidenceQuality float64, now time.Time) LifeProjection {
	age := p.Age(now)
	baseline := mortality.Expectancy(age, p.Gender)
	remaining := mortality.RemainingYears(age, p.Gender)

	integrated := mortality.IntegrateDecay(weightedDailyMinutes, mortality.AggregateDecayRate, remaining)
	deltaYears := integrated / minutesPerYear * evidenceQuality

	adjusted := baseline + deltaYears
	adjusted = math.Max(float64(age)+1, math.Min(maxExpectancyYears, adjusted))

	return LifeProjection{
		BaselineYears:           baseline,
		AdjustedYears:           adjusted,
		ConfidencePercentage:    40 + 55*evidenceQuality,
		ConfidenceIntervalYears: ConfidenceIntervalYears,
	}
}
