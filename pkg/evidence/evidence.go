// Package evidence holds the study metadata backing each metric's risk curve
// and the reliability weights derived from it.
package evidence

import "github.com/ampedlife/amped/pkg/health"

// Tier grades how strong the published evidence behind a curve is.
type Tier string

const (
	TierHigh     Tier = "high"     // large cohorts or meta-analyses, long follow-up
	TierModerate Tier = "moderate" // consistent cohort evidence, shorter follow-up
	TierLow      Tier = "low"      // emerging or indirect evidence
)

// Weight converts a tier to the multiplier applied during aggregation.
func (t Tier) Weight() float64 {
	switch t {
	case TierHigh:
		return 1.0
	case TierModerate:
		return 0.8
	case TierLow:
		return 0.6
	}
	return 0.6
}

// StudyReference cites the primary study a curve was calibrated against.
// Read-only; the engine never mutates these.
type StudyReference struct {
	Citation      string `json:"citation"`
	SampleSize    int    `json:"sample_size"`
	FollowUpYears int    `json:"follow_up_years"`
	StudyType     string `json:"study_type"`
	Reliability   Tier   `json:"reliability"`
}

var references = map[health.MetricType]StudyReference{
	health.MetricSteps: {
		Citation:      "Paluch et al., Lancet Public Health 2022: steps per day and all-cause mortality",
		SampleSize:    47471,
		FollowUpYears: 7,
		StudyType:     "meta-analysis",
		Reliability:   TierHigh,
	},
	health.MetricSleepDuration: {
		Citation:      "Cappuccio et al., Sleep 2010: sleep duration and all-cause mortality",
		SampleSize:    1382999,
		FollowUpYears: 25,
		StudyType:     "meta-analysis",
		Reliability:   TierHigh,
	},
	health.MetricSmokingStatus: {
		Citation:      "Doll et al., BMJ 2004: mortality in relation to smoking, 50-year observations",
		SampleSize:    34439,
		FollowUpYears: 50,
		StudyType:     "prospective cohort",
		Reliability:   TierHigh,
	},
	health.MetricBodyMass: {
		Citation:      "Global BMI Mortality Collaboration, Lancet 2016: BMI and all-cause mortality",
		SampleSize:    3951455,
		FollowUpYears: 14,
		StudyType:     "meta-analysis",
		Reliability:   TierHigh,
	},
	health.MetricExerciseMinutes: {
		Citation:      "Arem et al., JAMA Intern Med 2015: leisure time physical activity and mortality",
		SampleSize:    661137,
		FollowUpYears: 14,
		StudyType:     "pooled cohort",
		Reliability:   TierModerate,
	},
	health.MetricRestingHeartRate: {
		Citation:      "Zhang et al., CMAJ 2016: resting heart rate and all-cause mortality",
		SampleSize:    1246203,
		FollowUpYears: 13,
		StudyType:     "meta-analysis",
		Reliability:   TierModerate,
	},
	health.MetricAlcoholConsumption: {
		Citation:      "Wood et al., Lancet 2018: risk thresholds for alcohol consumption",
		SampleSize:    599912,
		FollowUpYears: 9,
		StudyType:     "pooled cohort",
		Reliability:   TierModerate,
	},
	health.MetricVO2Max: {
		Citation:      "Mandsager et al., JAMA Netw Open 2018: cardiorespiratory fitness and mortality",
		SampleSize:    122007,
		FollowUpYears: 8,
		StudyType:     "retrospective cohort",
		Reliability:   TierModerate,
	},
	health.MetricOxygenSaturation: {
		Citation:      "Vold et al., BMC Pulm Med 2015: resting oxygen saturation and mortality",
		SampleSize:    5152,
		FollowUpYears: 9,
		StudyType:     "prospective cohort",
		Reliability:   TierModerate,
	},
	health.MetricHeartRateVariability: {
		Citation:      "Jarczok et al., Neurosci Biobehav Rev 2022: HRV as a risk marker",
		SampleSize:    191558,
		FollowUpYears: 10,
		StudyType:     "meta-analysis",
		Reliability:   TierLow,
	},
	health.MetricActiveEnergy: {
		Citation:      "Strain et al., Nat Med 2020: device-measured energy expenditure and mortality",
		SampleSize:    96476,
		FollowUpYears: 3,
		StudyType:     "prospective cohort",
		Reliability:   TierLow,
	},
	health.MetricSocialConnections: {
		Citation:      "Holt-Lunstad et al., PLoS Med 2010: social relationships and mortality risk",
		SampleSize:    308849,
		FollowUpYears: 7,
		StudyType:     "meta-analysis",
		Reliability:   TierLow,
	},
	health.MetricNutritionScore: {
		Citation:      "Shan et al., JAMA Intern Med 2020: dietary patterns and mortality",
		SampleSize:    75230,
		FollowUpYears: 22,
		StudyType:     "prospective cohort",
		Reliability:   TierLow,
	},
	health.MetricStressLevel: {
		Citation:      "Russ et al., BMJ 2012: psychological distress and mortality",
		SampleSize:    68222,
		FollowUpYears: 8,
		StudyType:     "pooled cohort",
		Reliability:   TierLow,
	},
}

// Reference returns the study backing a metric's curve. The zero reference
// with TierLow reliability covers unknown metrics.
func Reference(t health.MetricType) StudyReference {
	if r, ok := references[t]; ok {
		return r
	}
	return StudyReference{Reliability: TierLow}
}

// WeightFor is shorthand for Reference(t).Reliability.Weight().
func WeightFor(t health.MetricType) float64 {
	return Reference(t).Reliability.Weight()
}
