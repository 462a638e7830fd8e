// Package impact orchestrates the full aggregation pipeline: per-metric risk
// evaluation, interaction adjustment, mortality weighting, evidence
// weighting, and period scaling into an immutable snapshot.
package impact

import (
	"log/slog"
	"sort"
	"time"

	"github.com/ampedlife/amped/pkg/evidence"
	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/interaction"
	"github.com/ampedlife/amped/pkg/mortality"
	"github.com/ampedlife/amped/pkg/risk"
)

// Engine runs aggregation passes. Each call is pure; the engine itself only
// carries configuration and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	policy ScalePolicy
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for diagnostic output such as domain clamps.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithPolicy selects the period-scaling policy.
func WithPolicy(p ScalePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine with the effect-aware scaling policy.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		policy: PolicyEffectAware,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy reports the engine's configured scaling policy.
func (e *Engine) Policy() ScalePolicy { return e.policy }

// ComputeImpact aggregates the samples into a snapshot for the period.
// Duplicate metric types keep the most recent sample; metrics without a
// calibrated curve are skipped; an empty input yields a zero snapshot.
func (e *Engine) ComputeImpact(metrics []health.Metric, period health.Period, profile health.Profile) Snapshot {
	now := e.now()
	age := profile.Age(now)

	latest := health.Latest(metrics)

	raw := make(map[health.MetricType]float64, len(latest))
	dailies := make(map[health.MetricType]float64, len(latest))
	clamps := make(map[health.MetricType]bool, len(latest))
	for t, m := range latest {
		if !risk.Has(t) {
			e.logger.Debug("skipping uncalibrated metric", "metric", t)
			continue
		}
		daily, clamped := risk.DailyImpact(t, m.Value, profile, now)
		if clamped {
			e.logger.Debug("input clamped to domain", "metric", t, "value", m.Value)
		}
		raw[t] = m.Value
		dailies[t] = daily
		clamps[t] = clamped
	}

	adjusted, applied := interaction.Adjust(dailies, raw)

	contributions := make(map[health.MetricType]float64, len(adjusted))
	details := make([]Detail, 0, len(adjusted))
	var weightedDaily, qualitySum float64
	for t, daily := range adjusted {
		weighted := mortality.AdjustDaily(daily, age, profile.Gender) * evidence.WeightFor(t)
		weightedDaily += weighted
		qualitySum += evidence.WeightFor(t)
		contributions[t] = e.policy.Scale(weighted, risk.EffectOf(t), period)
		details = append(details, Detail{
			Metric:       t,
			DailyMinutes: weighted,
			Comparison:   compare(weighted),
			Evidence:     evidence.Reference(t).Reliability,
			Clamped:      clamps[t],
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Metric < details[j].Metric })

	quality := 0.0
	if len(adjusted) > 0 {
		quality = qualitySum / float64(len(adjusted))
	}
	return newSnapshot(period, e.policy, contributions, weightedDaily, quality, details, applied, now)
}
