// Package target computes daily behavior targets: the value of a metric at
// which its lifespan impact crosses zero, or a 20% improvement when the
// current value is already beneficial. Results are cached one calendar day
// through an injected key-value store and re-validated on every read.
package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/impact"
	"github.com/ampedlife/amped/pkg/risk"
)

// AlgorithmVersion tags every cached target. Bumping it invalidates all
// cached entries at once.
const AlgorithmVersion = "3.2.0"

const (
	// searchTolerance is the neutral-impact acceptance band in minutes/day.
	searchTolerance = 0.25
	// maxSearchIterations caps the bisection; hitting it returns the nearest
	// bracket boundary flagged approximate.
	maxSearchIterations = 48
	// improveFraction is the step applied when the current value is already
	// beneficial.
	improveFraction = 0.20
)

// ErrUnknownMetric is returned for metric types without a calibrated curve.
var ErrUnknownMetric = errors.New("no calibrated curve for metric")

// Store is the key-value contract targets are cached through. Both the
// snapshot-backed cache and the SQLite targets table satisfy it.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// DailyTarget is the cached recommendation for one (metric, period) pair.
// BaselineValue and BaselineBenefit are frozen at computation time; live
// reads recompute the benefit against the caller's current value.
type DailyTarget struct {
	Metric          health.MetricType `json:"metric"`
	Period          health.Period     `json:"period"`
	TargetValue     float64           `json:"target_value"`
	BaselineValue   float64           `json:"baseline_value"`
	BaselineBenefit float64           `json:"baseline_benefit_minutes"`
	CalculatedAt    time.Time         `json:"calculated_at"`
	Version         string            `json:"algorithm_version"`
	Approximate     bool              `json:"approximate"`
}

// Valid reports whether the entry may still be served: computed on the same
// UTC calendar day by the current algorithm.
func (t DailyTarget) Valid(now time.Time) bool {
	return t.Version == AlgorithmVersion && sameDay(t.CalculatedAt, now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Recommendation is the live view over a stored target. BenefitMinutes is
// the period impact delta from the caller's current value to the target,
// recomputed on every read rather than served from the cache.
type Recommendation struct {
	Target         DailyTarget `json:"target"`
	CurrentValue   float64     `json:"current_value"`
	BenefitMinutes float64     `json:"benefit_minutes"`
	FromCache      bool        `json:"from_cache"`
}

// Direction describes which way the target moves the metric.
func (r Recommendation) Direction() string {
	switch {
	case r.Target.TargetValue > r.CurrentValue:
		return "increase"
	case r.Target.TargetValue < r.CurrentValue:
		return "decrease"
	default:
		return "maintain"
	}
}

// Engine finds and caches targets. Safe for concurrent use; writers of the
// same (metric, period) key are serialized through per-key locks so the
// validity check plus overwrite is atomic per key.
type Engine struct {
	store  Store
	logger *slog.Logger
	policy impact.ScalePolicy
	now    func() time.Time
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithPolicy selects the period-scaling policy used for benefit minutes.
func WithPolicy(p impact.ScalePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine caching through store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.Default(),
		policy: impact.PolicyEffectAware,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindTarget returns the target for the metric at the given period,
// reusing a same-day cached entry when one exists. Cache failures degrade to
// recomputation, never to an error.
func (e *Engine) FindTarget(ctx context.Context, metric health.MetricType, current float64, period health.Period, profile health.Profile) (Recommendation, error) {
	if !risk.Has(metric) {
		return Recommendation{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if err := ctx.Err(); err != nil {
		return Recommendation{}, err
	}

	key := cacheKey(metric, period)
	lock := e.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	if cached, ok := e.lookup(ctx, key); ok {
		if cached.Valid(now) {
			e.logger.Debug("serving cached target", "metric", metric, "period", period)
			return e.recommend(cached, current, profile, now, true), nil
		}
		e.logger.Debug("cached target stale", "metric", metric, "period", period,
			"calculated_at", cached.CalculatedAt, "version", cached.Version)
	}

	value, approximate := searchTarget(metric, current, profile, now)
	if approximate {
		e.logger.Debug("target search stopped at bracket boundary", "metric", metric, "value", value)
	}
	entry := DailyTarget{
		Metric:          metric,
		Period:          period,
		TargetValue:     value,
		BaselineValue:   current,
		BaselineBenefit: e.benefit(metric, current, value, period, profile, now),
		CalculatedAt:    now,
		Version:         AlgorithmVersion,
		Approximate:     approximate,
	}
	e.persist(ctx, key, entry)
	return e.recommend(entry, current, profile, now, false), nil
}

// Invalidate drops the cached target for the metric and period.
func (e *Engine) Invalidate(ctx context.Context, metric health.MetricType, period health.Period) error {
	key := cacheKey(metric, period)
	lock := e.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return e.store.Delete(ctx, key)
}

func cacheKey(metric health.MetricType, period health.Period) string {
	return fmt.Sprintf("%s:%s", metric, period)
}

func (e *Engine) keyLock(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}

func (e *Engine) lookup(ctx context.Context, key string) (DailyTarget, bool) {
	data, ok, err := e.store.Get(ctx, key)
	if err != nil {
		e.logger.Warn("target cache read failed", "key", key, "error", err)
		return DailyTarget{}, false
	}
	if !ok {
		return DailyTarget{}, false
	}
	var entry DailyTarget
	if err := json.Unmarshal(data, &entry); err != nil {
		e.logger.Warn("discarding undecodable target entry", "key", key, "error", err)
		return DailyTarget{}, false
	}
	return entry, true
}

func (e *Engine) persist(ctx context.Context, key string, entry DailyTarget) {
	data, err := json.Marshal(entry)
	if err != nil {
		e.logger.Warn("target entry marshal failed", "key", key, "error", err)
		return
	}
	if err := e.store.Set(ctx, key, data); err != nil {
		e.logger.Warn("target cache write failed", "key", key, "error", err)
	}
}

func (e *Engine) recommend(entry DailyTarget, current float64, profile health.Profile, now time.Time, fromCache bool) Recommendation {
	return Recommendation{
		Target:         entry,
		CurrentValue:   current,
		BenefitMinutes: e.benefit(entry.Metric, current, entry.TargetValue, entry.Period, profile, now),
		FromCache:      fromCache,
	}
}

// benefit is the period-scaled impact delta from current to target.
func (e *Engine) benefit(metric health.MetricType, current, targetValue float64, period health.Period, profile health.Profile, now time.Time) float64 {
	currentDaily, _ := risk.DailyImpact(metric, current, profile, now)
	targetDaily, _ := risk.DailyImpact(metric, targetValue, profile, now)
	return e.policy.Scale(targetDaily-currentDaily, risk.EffectOf(metric), period)
}

// searchTarget picks the branch: neutral search for harmful values, a 20%
// improvement step for beneficial ones.
func searchTarget(metric health.MetricType, current float64, profile health.Profile, now time.Time) (value float64, approximate bool) {
	clamped, _ := risk.Domain(metric).Clamp(current)
	daily, _ := risk.DailyImpact(metric, clamped, profile, now)
	if daily < 0 {
		return searchNeutral(metric, clamped, profile, now)
	}
	return improve(metric, clamped, profile, now), false
}

// searchNeutral bisects the monotonic branch nearest the current value for
// the point where impact crosses zero.
func searchNeutral(metric health.MetricType, current float64, profile health.Profile, now time.Time) (float64, bool) {
	bracket := risk.SearchBracket(metric, current, profile)
	lo, hi := bracket.Lo, bracket.Hi
	fLo, _ := risk.DailyImpact(metric, lo, profile, now)
	fHi, _ := risk.DailyImpact(metric, hi, profile, now)

	if math.Abs(fLo) <= searchTolerance {
		return lo, false
	}
	if math.Abs(fHi) <= searchTolerance {
		return hi, false
	}
	if (fLo < 0) == (fHi < 0) {
		// No zero crossing inside the branch. The boundary closer to neutral
		// is the best achievable value.
		if math.Abs(fLo) < math.Abs(fHi) {
			return lo, true
		}
		return hi, true
	}

	for i := 0; i < maxSearchIterations; i++ {
		mid := (lo + hi) / 2
		fMid, _ := risk.DailyImpact(metric, mid, profile, now)
		if math.Abs(fMid) <= searchTolerance {
			return mid, false
		}
		if (fMid < 0) == (fLo < 0) {
			lo, fLo = mid, fMid
		} else {
			hi, fHi = mid, fMid
		}
	}
	if math.Abs(fLo) < math.Abs(fHi) {
		return lo, true
	}
	return hi, true
}

// improve steps a beneficial value 20% further in whichever direction the
// curve rewards; at an optimum or plateau the current value is kept.
func improve(metric health.MetricType, current float64, profile health.Profile, now time.Time) float64 {
	domain := risk.Domain(metric)
	eps := (domain.Hi - domain.Lo) / 1000
	here, _ := risk.DailyImpact(metric, current, profile, now)

	upValue, _ := domain.Clamp(current + eps)
	downValue, _ := domain.Clamp(current - eps)
	up, _ := risk.DailyImpact(metric, upValue, profile, now)
	down, _ := risk.DailyImpact(metric, downValue, profile, now)

	const gain = 1e-9
	switch {
	case up > here+gain && up >= down:
		value := current * (1 + improveFraction)
		if value == current {
			// A zero current cannot grow multiplicatively; step toward the
			// beneficial end of the search branch instead.
			bracket := risk.SearchBracket(metric, current, profile)
			value = current + improveFraction*(bracket.Hi-current)
		}
		clamped, _ := domain.Clamp(value)
		return clamped
	case down > here+gain:
		clamped, _ := domain.Clamp(current * (1 - improveFraction))
		return clamped
	default:
		return current
	}
}
