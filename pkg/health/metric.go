// Package health defines the metric vocabulary, sample and profile types
// shared by the impact engine.
package health

import (
	"time"

	"github.com/google/uuid"
)

// MetricType identifies one tracked health behavior or measurement.
type MetricType string

const (
	// Activity
	MetricSteps           MetricType = "steps"
	MetricExerciseMinutes MetricType = "exercise_minutes"
	MetricActiveEnergy    MetricType = "active_energy"
	MetricVO2Max          MetricType = "vo2_max"

	// Physiology
	MetricRestingHeartRate     MetricType = "resting_heart_rate"
	MetricHeartRateVariability MetricType = "heart_rate_variability"
	MetricOxygenSaturation     MetricType = "oxygen_saturation"
	MetricBodyMass             MetricType = "body_mass"

	// Lifestyle
	MetricSleepDuration     MetricType = "sleep_duration"
	MetricNutritionScore    MetricType = "nutrition_score"
	MetricSocialConnections MetricType = "social_connections"
	MetricStressLevel       MetricType = "stress_level"

	// Substance
	MetricSmokingStatus      MetricType = "smoking_status"
	MetricAlcoholConsumption MetricType = "alcohol_consumption"
)

// Units maps metric types to their raw-value units.
var Units = map[MetricType]string{
	MetricSteps:                "steps",
	MetricExerciseMinutes:      "min",
	MetricActiveEnergy:         "kcal",
	MetricVO2Max:               "ml/kg/min",
	MetricRestingHeartRate:     "bpm",
	MetricHeartRateVariability: "ms",
	MetricOxygenSaturation:     "%",
	MetricBodyMass:             "kg",
	MetricSleepDuration:        "hours",
	MetricNutritionScore:       "score",
	MetricSocialConnections:    "interactions",
	MetricStressLevel:          "score",
	MetricSmokingStatus:        "cigarettes",
	MetricAlcoholConsumption:   "drinks",
}

// AllMetricTypes lists every metric the engine models, in display order.
var AllMetricTypes = []MetricType{
	MetricSteps, MetricExerciseMinutes, MetricActiveEnergy, MetricVO2Max,
	MetricRestingHeartRate, MetricHeartRateVariability, MetricOxygenSaturation, MetricBodyMass,
	MetricSleepDuration, MetricNutritionScore, MetricSocialConnections, MetricStressLevel,
	MetricSmokingStatus, MetricAlcoholConsumption,
}

// Valid reports whether s names a known metric type.
func Valid(s string) bool {
	for _, t := range AllMetricTypes {
		if t == MetricType(s) {
			return true
		}
	}
	return false
}

// Category groups metrics by how durable a behavior change is, which drives
// the decay rate applied when projecting impact into future years.
type Category string

const (
	CategoryEffort        Category = "effort"        // requires ongoing exertion
	CategoryAddiction     Category = "addiction"     // habit-locked, slow to erode
	CategoryPhysiological Category = "physiological" // body adapts gradually
	CategoryLifestyle     Category = "lifestyle"     // routine-driven
)

var categories = map[MetricType]Category{
	MetricSteps:                CategoryEffort,
	MetricExerciseMinutes:      CategoryEffort,
	MetricActiveEnergy:         CategoryEffort,
	MetricVO2Max:               CategoryEffort,
	MetricRestingHeartRate:     CategoryPhysiological,
	MetricHeartRateVariability: CategoryPhysiological,
	MetricOxygenSaturation:     CategoryPhysiological,
	MetricBodyMass:             CategoryPhysiological,
	MetricSleepDuration:        CategoryLifestyle,
	MetricNutritionScore:       CategoryLifestyle,
	MetricSocialConnections:    CategoryLifestyle,
	MetricStressLevel:          CategoryLifestyle,
	MetricSmokingStatus:        CategoryAddiction,
	MetricAlcoholConsumption:   CategoryAddiction,
}

// CategoryOf returns the decay category for a metric type. Unknown types
// fall back to CategoryLifestyle, the middle of the decay range.
func CategoryOf(t MetricType) Category {
	if c, ok := categories[t]; ok {
		return c
	}
	return CategoryLifestyle
}

// Source records where a sample came from.
type Source string

const (
	SourceSensor  Source = "sensor"
	SourceManual  Source = "manual"
	SourceDerived Source = "derived"
)

// Metric is a single immutable health reading in the metric's raw units.
type Metric struct {
	ID        uuid.UUID  `json:"id"`
	Type      MetricType `json:"type"`
	Value     float64    `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
	Source    Source     `json:"source"`
}

// New builds a sample with a fresh identifier.
func New(t MetricType, value float64, source Source, at time.Time) Metric {
	return Metric{
		ID:        uuid.New(),
		Type:      t,
		Value:     value,
		Timestamp: at,
		Source:    source,
	}
}

// Latest reduces samples to at most one per metric type, keeping the most
// recent by timestamp. Input order breaks timestamp ties (later wins).
func Latest(metrics []Metric) map[MetricType]Metric {
	out := make(map[MetricType]Metric, len(metrics))
	for _, m := range metrics {
		prev, ok := out[m.Type]
		if !ok || !m.Timestamp.Before(prev.Timestamp) {
			out[m.Type] = m
		}
	}
	return out
}
