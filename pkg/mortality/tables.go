// Package mortality provides age and gender indexed life-expectancy and
// mortality-rate lookups, the nonlinear per-day impact adjustment, and the
// behavior-decay integration used for long-horizon projections.
package mortality

import (
	"fmt"
	"math"

	"github.com/ampedlife/amped/pkg/health"
)

// Anchor tables run from age 0 to 100 in decade steps. Expectancy anchors are
// total expected lifespan given the attained age, so they rise with age as
// early-life hazards drop out. Rates are annual probability of death.
const anchorStep = 10

var (
	maleExpectancy   = []float64{76.1, 76.8, 77.1, 77.6, 78.2, 79.0, 80.3, 82.5, 86.1, 92.0, 101.0}
	femaleExpectancy = []float64{81.1, 81.6, 81.9, 82.3, 82.8, 83.5, 84.6, 86.4, 89.3, 94.0, 102.0}

	maleRate   = []float64{0.0060, 0.0002, 0.0013, 0.0018, 0.0025, 0.0053, 0.0118, 0.0265, 0.0655, 0.1680, 0.3500}
	femaleRate = []float64{0.0050, 0.0002, 0.0005, 0.0009, 0.0016, 0.0033, 0.0071, 0.0167, 0.0465, 0.1370, 0.3200}
)

// Validate checks the anchor tables for structural defects. Called once at
// process start; a failure here is a build error, not a runtime condition.
func Validate() error {
	tables := []struct {
		name    string
		anchors []float64
	}{
		{"male expectancy", maleExpectancy},
		{"female expectancy", femaleExpectancy},
		{"male rate", maleRate},
		{"female rate", femaleRate},
	}
	for _, tb := range tables {
		if len(tb.anchors) != 11 {
			return fmt.Errorf("%s table has %d anchors, want 11 (ages 0-100)", tb.name, len(tb.anchors))
		}
		for i, v := range tb.anchors {
			if v <= 0 {
				return fmt.Errorf("%s anchor at age %d is %.4f, want > 0", tb.name, i*anchorStep, v)
			}
		}
	}
	for i := range maleExpectancy {
		age := float64(i * anchorStep)
		if maleExpectancy[i] <= age || femaleExpectancy[i] <= age {
			return fmt.Errorf("expectancy anchor at age %.0f does not exceed attained age", age)
		}
	}
	return nil
}

// lerp interpolates linearly between decade anchors. Ages outside [0, 100]
// clamp to the nearest anchor.
func lerp(anchors []float64, age int) float64 {
	if age <= 0 {
		return anchors[0]
	}
	last := len(anchors) - 1
	if age >= last*anchorStep {
		return anchors[last]
	}
	idx := age / anchorStep
	frac := float64(age%anchorStep) / anchorStep
	return anchors[idx] + (anchors[idx+1]-anchors[idx])*frac
}

func blend(a, b float64) float64 { return (a + b) / 2 }

// Expectancy returns total expected lifespan in years for the attained age.
// Unspecified gender blends the male and female tables.
func Expectancy(age int, gender health.Gender) float64 {
	switch gender {
	case health.GenderMale:
		return lerp(maleExpectancy, age)
	case health.GenderFemale:
		return lerp(femaleExpectancy, age)
	default:
		return blend(lerp(maleExpectancy, age), lerp(femaleExpectancy, age))
	}
}

// Rate returns the annual mortality rate at the given age.
func Rate(age int, gender health.Gender) float64 {
	switch gender {
	case health.GenderMale:
		return lerp(maleRate, age)
	case health.GenderFemale:
		return lerp(femaleRate, age)
	default:
		return blend(lerp(maleRate, age), lerp(femaleRate, age))
	}
}

// RemainingYears is the expected years left at the given age, floored at 1
// so downstream divisions stay finite.
func RemainingYears(age int, gender health.Gender) float64 {
	return math.Max(1, Expectancy(age, gender)-float64(age))
}
