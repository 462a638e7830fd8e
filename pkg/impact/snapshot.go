package impact

import (
	"time"

	"github.com/ampedlife/amped/pkg/evidence"
	"github.com/ampedlife/amped/pkg/health"
)

// Comparison positions a metric's daily impact against baseline risk.
type Comparison string

const (
	Better Comparison = "better"
	Same   Comparison = "same"
	Worse  Comparison = "worse"
)

// comparisonBand is the daily-minutes dead zone treated as "same".
const comparisonBand = 0.5

func compare(dailyMinutes float64) Comparison {
	switch {
	case dailyMinutes > comparisonBand:
		return Better
	case dailyMinutes < -comparisonBand:
		return Worse
	default:
		return Same
	}
}

// Detail is one metric's contribution to a calculation pass. Replaced on
// every pass, never mutated.
type Detail struct {
	Metric       health.MetricType `json:"metric"`
	DailyMinutes float64           `json:"daily_minutes"`
	Comparison   Comparison        `json:"comparison"`
	Evidence     evidence.Tier     `json:"evidence"`
	Clamped      bool              `json:"clamped,omitempty"`
}

// Snapshot is the immutable result of one aggregation pass. Contributions
// hold each metric's weighted, period-scaled minutes; TotalMinutes is always
// exactly their sum under the snapshot's policy, never stored independently.
type Snapshot struct {
	Period        health.Period                 `json:"period"`
	Policy        ScalePolicy                   `json:"policy"`
	TotalMinutes  float64                       `json:"total_minutes"`
	Contributions map[health.MetricType]float64 `json:"contributions"`
	// WeightedDailyMinutes is the pre-scaling daily sum the projection
	// engine consumes.
	WeightedDailyMinutes float64   `json:"weighted_daily_minutes"`
	EvidenceQuality      float64   `json:"evidence_quality"`
	Details              []Detail  `json:"details"`
	AppliedRules         []string  `json:"applied_rules,omitempty"`
	ComputedAt           time.Time `json:"computed_at"`
}

// newSnapshot derives the total from the contributions so the two can never
// drift apart.
func newSnapshot(period health.Period, policy ScalePolicy, contributions map[health.MetricType]float64, weightedDaily, quality float64, details []Detail, applied []string, at time.Time) Snapshot {
	var total float64
	for _, c := range contributions {
		total += c
	}
	return Snapshot{
		Period:               period,
		Policy:               policy,
		TotalMinutes:         total,
		Contributions:        contributions,
		WeightedDailyMinutes: weightedDaily,
		EvidenceQuality:      quality,
		Details:              details,
		AppliedRules:         applied,
		ComputedAt:           at,
	}
}
