// Package risk converts raw metric values into daily lifespan impact in
// minutes. Each metric is one entry in a curve registry holding its clamp
// domain, piecewise parameters and evaluation shape, so the calibration
// constants can be audited in one place against their cited studies.
package risk

import (
	"math"
	"time"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/mortality"
)

// minutesPerYear is 365.25 days × 1440 minutes.
const minutesPerYear = 525960

// EffectType describes how a metric's daily benefit accumulates across
// longer periods, which drives effect-aware period scaling.
type EffectType string

const (
	EffectLinear      EffectType = "linear"
	EffectDiminishing EffectType = "diminishing"
	EffectThreshold   EffectType = "threshold"
	EffectPlateau     EffectType = "plateau"
	EffectExponential EffectType = "exponential"
)

// Range is an inclusive clamp interval.
type Range struct {
	Lo, Hi float64
}

// Clamp pins v into the range and reports whether it moved.
func (r Range) Clamp(v float64) (float64, bool) {
	switch {
	case v < r.Lo:
		return r.Lo, true
	case v > r.Hi:
		return r.Hi, true
	default:
		return v, false
	}
}

// Curve is one registry entry. Exactly one of RR or Direct is set: RR curves
// produce a relative risk that rrToMinutes converts using the profile's
// remaining-years horizon; Direct curves return minutes straight from the
// clamped value.
type Curve struct {
	Domain    Range
	Effect    EffectType
	Reference float64 // raw value with zero impact (default profile)
	Scale     float64 // RR conversion scaling constant
	RR        func(v float64) float64
	Direct    func(v float64, p health.Profile) float64
	// Bracket returns the monotonic sub-range containing v, for target
	// search. Nil means the whole domain is monotonic.
	Bracket func(v float64, p health.Profile) Range
}

// Has reports whether a curve exists for the metric type.
func Has(t health.MetricType) bool {
	_, ok := curves[t]
	return ok
}

// Domain returns the metric's physiological clamp range.
func Domain(t health.MetricType) Range {
	return curves[t].Domain
}

// EffectOf returns the metric's period-scaling effect type. Metrics without
// a curve scale linearly.
func EffectOf(t health.MetricType) EffectType {
	if c, ok := curves[t]; ok {
		return c.Effect
	}
	return EffectLinear
}

// ReferenceValue returns the raw value at which the metric's impact crosses
// zero for a default profile.
func ReferenceValue(t health.MetricType) float64 {
	return curves[t].Reference
}

// DailyImpact evaluates a metric's daily lifespan impact in minutes for the
// given profile at time now. Out-of-domain values are clamped, never
// rejected; the second return reports that a clamp occurred.
func DailyImpact(t health.MetricType, value float64, p health.Profile, now time.Time) (float64, bool) {
	c, ok := curves[t]
	if !ok {
		return 0, false
	}
	v, clamped := c.Domain.Clamp(value)
	if c.RR != nil {
		return rrToMinutes(c.RR(v), c.Scale, p, now), clamped
	}
	return c.Direct(v, p), clamped
}

// SearchBracket returns the monotonic sub-range of the metric's domain
// nearest the (clamped) current value. Target search must stay inside it.
func SearchBracket(t health.MetricType, current float64, p health.Profile) Range {
	c, ok := curves[t]
	if !ok {
		return Range{}
	}
	v, _ := c.Domain.Clamp(current)
	if c.Bracket != nil {
		return c.Bracket(v, p)
	}
	return c.Domain
}

// rrToMinutes converts a relative risk into daily minutes. RR below 1 spends
// the avoided hazard as gained life spread over the remaining years; RR
// above 1 costs minutes symmetrically.
func rrToMinutes(rr, scale float64, p health.Profile, now time.Time) float64 {
	age := p.Age(now)
	refExp := mortality.Expectancy(age, p.Gender)
	remaining := math.Max(1, refExp-float64(age))
	return refExp * minutesPerYear * (1 - rr) * scale / (remaining * mortality.DaysPerYear)
}
