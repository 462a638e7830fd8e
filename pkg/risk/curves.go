package risk

import (
	"math"

	"github.com/ampedlife/amped/pkg/health"
)

// stepsPlateauRR continues the log segment's endpoint so the curve stays
// continuous at 11000 steps.
var stepsPlateauRR = 1 - 0.3133*math.Log(11000.0/4500.0)

// curves is the calibration table. One entry per metric; every constant a
// study-derived effect size or a documented plateau cap.
var curves = map[health.MetricType]Curve{

	// J-shaped: RR 1.35 at sedentary zero, unity at 4500, log decline to
	// ~0.72 at 11000, flat to 16000, mild reversal above (capped at 0.90).
	health.MetricSteps: {
		Domain:    Range{0, 40000},
		Effect:    EffectDiminishing,
		Reference: 4500,
		Scale:     0.06,
		RR: func(v float64) float64 {
			switch {
			case v < 4500:
				return 1 + 0.35*(4500-v)/4500
			case v <= 11000:
				return 1 - 0.3133*math.Log(v/4500)
			case v <= 16000:
				return stepsPlateauRR
			default:
				rr := stepsPlateauRR + 0.005*(v-16000)/1000
				return math.Min(rr, 0.90)
			}
		},
		Bracket: func(v float64, _ health.Profile) Range {
			switch {
			case v <= 11000:
				return Range{0, 11000}
			case v <= 16000:
				return Range{11000, 16000}
			default:
				return Range{16000, 40000}
			}
		},
	},

	// U-shaped around 7.5h; the short-sleep arm is steeper than the
	// long-sleep arm.
	health.MetricSleepDuration: {
		Domain:    Range{3, 12},
		Effect:    EffectThreshold,
		Reference: 7.5,
		Scale:     0.10,
		RR: func(v float64) float64 {
			d := v - 7.5
			if d < 0 {
				return 1 + 0.035*d*d
			}
			return 1 + 0.025*d*d
		},
		Bracket: func(v float64, _ health.Profile) Range {
			if v < 7.5 {
				return Range{3, 7.5}
			}
			return Range{7.5, 12}
		},
	},

	// +16% relative risk per 10 bpm above 60; mildly protective below.
	health.MetricRestingHeartRate: {
		Domain:    Range{35, 120},
		Effect:    EffectPlateau,
		Reference: 60,
		Scale:     0.05,
		RR: func(v float64) float64 {
			if v >= 60 {
				return math.Pow(1.16, (v-60)/10)
			}
			return 1 - 0.004*(60-v)
		},
	},

	// Logarithmic benefit, plateau RR 0.70 from roughly 56 min/day.
	health.MetricExerciseMinutes: {
		Domain:    Range{0, 300},
		Effect:    EffectDiminishing,
		Reference: 0,
		Scale:     0.06,
		RR: func(v float64) float64 {
			return math.Max(0.70, 1-0.1587*math.Log(1+v/10))
		},
	},

	// Near-linear harm to two drinks, compounding above.
	health.MetricAlcoholConsumption: {
		Domain:    Range{0, 15},
		Effect:    EffectExponential,
		Reference: 0,
		Scale:     0.05,
		RR: func(v float64) float64 {
			if v <= 2 {
				return 1 + 0.06*v
			}
			return 1.12 * math.Pow(1.10, v-2)
		},
	},

	// 0.5 min per ms around a 50ms reference, saturating at ±30.
	health.MetricHeartRateVariability: {
		Domain:    Range{10, 100},
		Effect:    EffectPlateau,
		Reference: 50,
		Direct: func(v float64, _ health.Profile) float64 {
			return clampMinutes((v-50)*0.5, -30, 30)
		},
	},

	// Raw kilograms become BMI via profile height. Neutral 20-25, 8 min per
	// BMI point above, 7 below 20.
	health.MetricBodyMass: {
		Domain:    Range{25, 250},
		Effect:    EffectThreshold,
		Reference: 65,
		Direct: func(v float64, p health.Profile) float64 {
			bmi, _ := (Range{12, 60}).Clamp(p.BMI(v))
			switch {
			case bmi >= 20 && bmi <= 25:
				return 0
			case bmi > 25:
				return math.Max(-120, -8*(bmi-25))
			default:
				return math.Max(-80, -7*(20-bmi))
			}
		},
		Bracket: func(v float64, p health.Profile) Range {
			h := p.Height()
			lo, hi := 20*h*h, 25*h*h
			switch {
			case v < lo:
				return Range{25, lo}
			case v <= hi:
				return Range{lo, hi}
			default:
				return Range{hi, 250}
			}
		},
	},

	// 2.2 min per unit above a 38 ml/kg/min reference, 2.8 below, ±45 cap.
	health.MetricVO2Max: {
		Domain:    Range{20, 60},
		Effect:    EffectPlateau,
		Reference: 38,
		Direct: func(v float64, _ health.Profile) float64 {
			if v >= 38 {
				return math.Min(45, 2.2*(v-38))
			}
			return math.Max(-45, -2.8*(38-v))
		},
	},

	// Per-kcal effect around a 300 kcal/day reference.
	health.MetricActiveEnergy: {
		Domain:    Range{0, 2000},
		Effect:    EffectDiminishing,
		Reference: 300,
		Direct: func(v float64, _ health.Profile) float64 {
			if v >= 300 {
				return math.Min(40, 0.06*(v-300))
			}
			return math.Max(-30, -0.05*(300-v))
		},
	},

	// Flat at or above 96%, steepening below 90%.
	health.MetricOxygenSaturation: {
		Domain:    Range{85, 100},
		Effect:    EffectPlateau,
		Reference: 96,
		Direct: func(v float64, _ health.Profile) float64 {
			switch {
			case v >= 96:
				return 0
			case v >= 90:
				return -12 * (96 - v)
			default:
				return math.Max(-150, -72-20*(90-v))
			}
		},
	},

	// The classic eleven minutes per cigarette.
	health.MetricSmokingStatus: {
		Domain:    Range{0, 60},
		Effect:    EffectExponential,
		Reference: 0,
		Direct: func(v float64, _ health.Profile) float64 {
			return math.Max(-240, -11*v)
		},
	},

	// Meaningful interactions per day; isolation carries its own cost.
	health.MetricSocialConnections: {
		Domain:    Range{0, 10},
		Effect:    EffectPlateau,
		Reference: 1,
		Direct: func(v float64, _ health.Profile) float64 {
			if v >= 1 {
				return math.Min(36, 9*(v-1))
			}
			return -15 * (1 - v)
		},
	},

	// 0-100 diet quality score against a 55-point population reference.
	health.MetricNutritionScore: {
		Domain:    Range{0, 100},
		Effect:    EffectDiminishing,
		Reference: 55,
		Direct: func(v float64, _ health.Profile) float64 {
			if v >= 55 {
				return math.Min(45, 0.45*(v-55))
			}
			return math.Max(-45, -0.55*(55-v))
		},
	},

	// 0-10 self-reported scale around a reference of 4.
	health.MetricStressLevel: {
		Domain:    Range{0, 10},
		Effect:    EffectLinear,
		Reference: 4,
		Direct: func(v float64, _ health.Profile) float64 {
			if v >= 4 {
				return -9 * (v - 4)
			}
			return 4 * (4 - v)
		},
	},
}

func clampMinutes(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
