package health

import "time"

// Gender selects the mortality table column. Unspecified is valid and maps
// to the mean of the male and female tables.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = ""
)

// Defaults applied when profile fields are absent. The engine estimates
// rather than fails.
const (
	DefaultAge          = 38
	DefaultHeightMeters = 1.70
)

// Profile carries the user attributes the engine needs. Any field may be
// zero; accessors substitute documented defaults.
type Profile struct {
	BirthYear    int     `json:"birth_year"`
	Gender       Gender  `json:"gender"`
	HeightMeters float64 `json:"height_meters"`
	WeightKg     float64 `json:"weight_kg"`
	Onboarded    bool    `json:"onboarded"`
	Subscribed   bool    `json:"subscribed"`
}

// Age derives the user's age at now from the birth year, clamped to [0, 110].
// A missing birth year yields DefaultAge.
func (p Profile) Age(now time.Time) int {
	if p.BirthYear <= 0 {
		return DefaultAge
	}
	age := now.Year() - p.BirthYear
	if age < 0 {
		return 0
	}
	if age > 110 {
		return 110
	}
	return age
}

// Height returns the profile height in meters, or DefaultHeightMeters when
// unset.
func (p Profile) Height() float64 {
	if p.HeightMeters <= 0 {
		return DefaultHeightMeters
	}
	return p.HeightMeters
}

// BMI converts a body mass in kilograms to body-mass index using the profile
// height.
func (p Profile) BMI(weightKg float64) float64 {
	h := p.Height()
	return weightKg / (h * h)
}
