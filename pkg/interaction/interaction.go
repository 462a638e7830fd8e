// Package interaction applies cross-metric adjustments to per-metric daily
// impacts. Each rule is a trigger over two raw metric values plus a positive
// multiplicative factor on one side's impact, so a rule can strengthen or
// weaken an impact but never flip its sign.
package interaction

import (
	"math"

	"github.com/ampedlife/amped/pkg/health"
)

// Rule adjusts the Target metric's impact when Trigger holds over the raw
// values. Both metrics named by a rule must be present for it to fire.
type Rule struct {
	Name    string
	Target  health.MetricType
	Trigger func(raw map[health.MetricType]float64) bool
	Factor  func(raw map[health.MetricType]float64) float64
}

// rules fire in declaration order; when several target the same metric their
// factors compose multiplicatively in this order, keeping results
// reproducible.
var rules = []Rule{
	{
		// Training on good sleep compounds: recovery amplifies the benefit.
		Name:   "sleep-exercise-synergy",
		Target: health.MetricExerciseMinutes,
		Trigger: func(raw map[health.MetricType]float64) bool {
			sleep, okS := raw[health.MetricSleepDuration]
			ex, okE := raw[health.MetricExerciseMinutes]
			return okS && okE && sleep >= 7 && sleep <= 8 && ex >= 30
		},
		Factor: func(map[health.MetricType]float64) float64 { return 1.15 },
	},
	{
		// Heavy drinking suppresses autonomic recovery.
		Name:   "alcohol-hrv-antagonism",
		Target: health.MetricHeartRateVariability,
		Trigger: func(raw map[health.MetricType]float64) bool {
			alc, okA := raw[health.MetricAlcoholConsumption]
			_, okH := raw[health.MetricHeartRateVariability]
			return okA && okH && alc > 2
		},
		Factor: func(map[health.MetricType]float64) float64 { return 0.75 },
	},
	{
		// Alcohol fragments sleep architecture even at equal duration.
		Name:   "alcohol-sleep-antagonism",
		Target: health.MetricSleepDuration,
		Trigger: func(raw map[health.MetricType]float64) bool {
			alc, okA := raw[health.MetricAlcoholConsumption]
			_, okS := raw[health.MetricSleepDuration]
			return okA && okS && alc > 2
		},
		Factor: func(map[health.MetricType]float64) float64 { return 0.80 },
	},
	{
		// High stress degrades sleep quality.
		Name:   "stress-sleep-antagonism",
		Target: health.MetricSleepDuration,
		Trigger: func(raw map[health.MetricType]float64) bool {
			stress, okT := raw[health.MetricStressLevel]
			_, okS := raw[health.MetricSleepDuration]
			return okT && okS && stress >= 7
		},
		Factor: func(map[health.MetricType]float64) float64 { return 0.85 },
	},
	{
		// Carrying extra weight blunts step benefit, 10% per 20kg over 90.
		Name:   "bodymass-steps-antagonism",
		Target: health.MetricSteps,
		Trigger: func(raw map[health.MetricType]float64) bool {
			kg, okW := raw[health.MetricBodyMass]
			_, okS := raw[health.MetricSteps]
			return okW && okS && kg > 90
		},
		Factor: func(raw map[health.MetricType]float64) float64 {
			increments := 1 + math.Floor((raw[health.MetricBodyMass]-90)/20)
			return math.Pow(0.90, increments)
		},
	},
}

// Adjust returns a copy of impacts with every triggered rule applied once,
// plus the names of the rules that fired, in order. The input map is never
// mutated.
func Adjust(impacts, raw map[health.MetricType]float64) (map[health.MetricType]float64, []string) {
	adjusted := make(map[health.MetricType]float64, len(impacts))
	for k, v := range impacts {
		adjusted[k] = v
	}

	var applied []string
	for _, r := range rules {
		if _, ok := adjusted[r.Target]; !ok {
			continue
		}
		if !r.Trigger(raw) {
			continue
		}
		adjusted[r.Target] *= r.Factor(raw)
		applied = append(applied, r.Name)
	}
	return adjusted, applied
}

// Rules exposes the rule set for audit and display.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
