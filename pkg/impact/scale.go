package impact

import (
	"fmt"
	"math"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/risk"
)

// ScalePolicy converts a daily impact rate into a period total. Exactly one
// policy governs a calculation pass; callers choose it when building the
// engine rather than mixing rules per call site.
type ScalePolicy string

const (
	// PolicyLinear multiplies by calendar days: ×1, ×30, ×365.
	PolicyLinear ScalePolicy = "linear"
	// PolicyEffectAware scales each metric by how its effect accumulates:
	// diminishing and threshold effects compress below linear but never
	// under 20× monthly / 180× yearly, plateau effects flatten sooner, and
	// exponential effects compound but are capped at 150% of linear.
	PolicyEffectAware ScalePolicy = "effect_aware"
)

const (
	diminishingMonthFactor = 22.5
	diminishingYearFactor  = 200.75
	monthFloorFactor       = 20.0
	yearFloorFactor        = 180.0
	plateauMonthFactor     = 25.0
	plateauYearFactor      = 240.0
	thresholdMaturityDays  = 21.0
	thresholdEarlyFraction = 0.30
	exponentialDailyRate   = 0.015
	exponentialLinearCap   = 1.5
)

// ParsePolicy validates a policy string.
func ParsePolicy(s string) (ScalePolicy, error) {
	switch ScalePolicy(s) {
	case PolicyLinear, PolicyEffectAware:
		return ScalePolicy(s), nil
	}
	return "", fmt.Errorf("unknown scaling policy %q (want linear or effect_aware)", s)
}

// Scale converts dailyMinutes to the period total for one metric.
func (p ScalePolicy) Scale(dailyMinutes float64, effect risk.EffectType, period health.Period) float64 {
	if period == health.PeriodDay {
		return dailyMinutes
	}
	days := period.Days()
	if p == PolicyLinear {
		return dailyMinutes * days
	}

	switch effect {
	case risk.EffectDiminishing:
		factor := diminishingMonthFactor
		if period == health.PeriodYear {
			factor = diminishingYearFactor
		}
		return dailyMinutes * math.Max(factor, floorFor(period))
	case risk.EffectThreshold:
		// Reduced accrual until the behavior matures, linear after.
		factor := thresholdEarlyFraction*math.Min(days, thresholdMaturityDays) + math.Max(0, days-thresholdMaturityDays)
		return dailyMinutes * math.Max(factor, floorFor(period))
	case risk.EffectPlateau:
		factor := plateauMonthFactor
		if period == health.PeriodYear {
			factor = plateauYearFactor
		}
		return dailyMinutes * factor
	case risk.EffectExponential:
		// Geometric accrual, hard-capped to stop runaway totals.
		factor := (math.Pow(1+exponentialDailyRate, days) - 1) / exponentialDailyRate
		return dailyMinutes * math.Min(factor, exponentialLinearCap*days)
	default:
		return dailyMinutes * days
	}
}

func floorFor(period health.Period) float64 {
	if period == health.PeriodYear {
		return yearFloorFactor
	}
	return monthFloorFactor
}
