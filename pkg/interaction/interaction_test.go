package interaction

import (
	"math"
	"testing"

	"github.com/ampedlife/amped/pkg/health"
)

func TestSleepExerciseSynergy(t *testing.T) {
	impacts := map[health.MetricType]float64{
		health.MetricExerciseMinutes: 30,
		health.MetricSleepDuration:   2,
	}
	raw := map[health.MetricType]float64{
		health.MetricExerciseMinutes: 45,
		health.MetricSleepDuration:   7.5,
	}

	adjusted, applied := Adjust(impacts, raw)
	if got := adjusted[health.MetricExerciseMinutes]; math.Abs(got-34.5) > 1e-9 {
		t.Errorf("exercise impact = %.2f, want 34.5 (×1.15)", got)
	}
	if got := adjusted[health.MetricSleepDuration]; got != 2 {
		t.Errorf("sleep impact = %.2f, want untouched 2", got)
	}
	if len(applied) != 1 || applied[0] != "sleep-exercise-synergy" {
		t.Errorf("applied = %v, want [sleep-exercise-synergy]", applied)
	}
}

func TestAlcoholGatingRestoresHRVExactly(t *testing.T) {
	impacts := map[health.MetricType]float64{
		health.MetricHeartRateVariability: -12.5,
	}
	over := map[health.MetricType]float64{
		health.MetricAlcoholConsumption:   3,
		health.MetricHeartRateVariability: 35,
	}
	under := map[health.MetricType]float64{
		health.MetricAlcoholConsumption:   2, // threshold is strictly above 2
		health.MetricHeartRateVariability: 35,
	}

	withRule, _ := Adjust(impacts, over)
	if got := withRule[health.MetricHeartRateVariability]; math.Abs(got-(-9.375)) > 1e-9 {
		t.Errorf("HRV impact over threshold = %.4f, want -9.375", got)
	}

	withoutRule, applied := Adjust(impacts, under)
	if got := withoutRule[health.MetricHeartRateVariability]; got != -12.5 {
		t.Errorf("HRV impact under threshold = %.4f, want exactly -12.5", got)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %v, want none", applied)
	}
}

func TestRulesStackInDeclarationOrder(t *testing.T) {
	impacts := map[health.MetricType]float64{
		health.MetricSleepDuration: -10,
	}
	raw := map[health.MetricType]float64{
		health.MetricSleepDuration:      6,
		health.MetricAlcoholConsumption: 4,
		health.MetricStressLevel:        8,
	}

	adjusted, applied := Adjust(impacts, raw)
	// ×0.80 then ×0.85, multiplicative either way but order is recorded.
	if got := adjusted[health.MetricSleepDuration]; math.Abs(got-(-6.8)) > 1e-9 {
		t.Errorf("sleep impact = %.4f, want -6.8", got)
	}
	want := []string{"alcohol-sleep-antagonism", "stress-sleep-antagonism"}
	if len(applied) != 2 || applied[0] != want[0] || applied[1] != want[1] {
		t.Errorf("applied = %v, want %v", applied, want)
	}
}

func TestBodyMassIncrements(t *testing.T) {
	tests := []struct {
		kg   float64
		want float64
	}{
		{90, 20},       // at threshold, no rule
		{95, 18},       // one increment ×0.90
		{115, 16.2},    // two increments
		{135, 14.58},   // three
	}

	for _, tt := range tests {
		impacts := map[health.MetricType]float64{health.MetricSteps: 20}
		raw := map[health.MetricType]float64{
			health.MetricSteps:    8000,
			health.MetricBodyMass: tt.kg,
		}
		adjusted, _ := Adjust(impacts, raw)
		if got := adjusted[health.MetricSteps]; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("steps impact at %.0fkg = %.4f, want %.4f", tt.kg, got, tt.want)
		}
	}
}

func TestRuleNeedsBothMetricsPresent(t *testing.T) {
	impacts := map[health.MetricType]float64{
		health.MetricHeartRateVariability: -12.5,
	}
	// Alcohol present and high, but no HRV reading in the raw set.
	raw := map[health.MetricType]float64{
		health.MetricAlcoholConsumption: 5,
	}

	// HRV impact exists but its raw sample is missing: rule stays quiet.
	adjusted, applied := Adjust(impacts, raw)
	if got := adjusted[health.MetricHeartRateVariability]; got != -12.5 {
		t.Errorf("HRV impact = %.4f, want untouched -12.5", got)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %v, want none", applied)
	}
}

func TestAdjustNeverFlipsSign(t *testing.T) {
	impacts := map[health.MetricType]float64{
		health.MetricSleepDuration:        -4,
		health.MetricExerciseMinutes:      25,
		health.MetricHeartRateVariability: 8,
		health.MetricSteps:                30,
	}
	raw := map[health.MetricType]float64{
		health.MetricSleepDuration:        7.5,
		health.MetricExerciseMinutes:      60,
		health.MetricHeartRateVariability: 65,
		health.MetricSteps:                12000,
		health.MetricAlcoholConsumption:   6,
		health.MetricStressLevel:          9,
		health.MetricBodyMass:             130,
	}

	adjusted, _ := Adjust(impacts, raw)
	for m, before := range impacts {
		after := adjusted[m]
		if before < 0 && after >= 0 || before > 0 && after <= 0 {
			t.Errorf("%s: sign flipped %.2f → %.2f", m, before, after)
		}
	}
}

func TestInputMapNotMutated(t *testing.T) {
	impacts := map[health.MetricType]float64{
		health.MetricHeartRateVariability: -12.5,
	}
	raw := map[health.MetricType]float64{
		health.MetricAlcoholConsumption:   5,
		health.MetricHeartRateVariability: 30,
	}

	Adjust(impacts, raw)
	if impacts[health.MetricHeartRateVariability] != -12.5 {
		t.Error("Adjust mutated its input map")
	}
}
