package target

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/risk"
)

var (
	testNow     = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	testProfile = health.Profile{BirthYear: 1986, Gender: health.GenderMale, HeightMeters: 1.70, WeightKg: 75}
)

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	failGet bool
	failSet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, false, errors.New("injected read failure")
	}
	data, ok := s.data[key]
	return data, ok, nil
}

func (s *fakeStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.failSet {
		return errors.New("injected write failure")
	}
	s.data[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func testEngine(store Store, at time.Time) *Engine {
	return New(store,
		WithClock(func() time.Time { return at }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestNeutralTargetRoundTrip(t *testing.T) {
	e := testEngine(newFakeStore(), testNow)
	rec, err := e.FindTarget(context.Background(), health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}

	if rec.Target.TargetValue <= 3000 {
		t.Errorf("target = %.0f, want above the harmful current value 3000", rec.Target.TargetValue)
	}
	daily, _ := risk.DailyImpact(health.MetricSteps, rec.Target.TargetValue, testProfile, testNow)
	if math.Abs(daily) > searchTolerance {
		t.Errorf("impact at target = %.3f min/day, want within ±%.2f of neutral", daily, searchTolerance)
	}
	if rec.BenefitMinutes <= 0 {
		t.Errorf("benefit = %.2f, want positive", rec.BenefitMinutes)
	}
	if rec.Target.Approximate {
		t.Error("search converged but entry flagged approximate")
	}
	if rec.FromCache {
		t.Error("first computation reported FromCache")
	}
	if rec.Direction() != "increase" {
		t.Errorf("Direction() = %s, want increase", rec.Direction())
	}
}

func TestYearTargetExceedsCurrentWithLargerBenefit(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store, testNow)
	ctx := context.Background()

	day, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget(day) error = %v", err)
	}
	year, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodYear, testProfile)
	if err != nil {
		t.Fatalf("FindTarget(year) error = %v", err)
	}

	if year.Target.TargetValue <= 3000 {
		t.Errorf("year target = %.0f, want > 3000", year.Target.TargetValue)
	}
	if year.BenefitMinutes <= day.BenefitMinutes {
		t.Errorf("year benefit %.1f should exceed day benefit %.1f", year.BenefitMinutes, day.BenefitMinutes)
	}
}

func TestBeneficialValueImprovedByTwentyPercent(t *testing.T) {
	e := testEngine(newFakeStore(), testNow)
	rec, err := e.FindTarget(context.Background(), health.MetricSteps, 8500, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	if math.Abs(rec.Target.TargetValue-10200) > 1e-6 {
		t.Errorf("target = %.2f, want 10200 (8500 × 1.2)", rec.Target.TargetValue)
	}
	if rec.BenefitMinutes <= 0 {
		t.Errorf("benefit = %.2f, want positive", rec.BenefitMinutes)
	}
	if rec.Direction() != "increase" {
		t.Errorf("Direction() = %s, want increase", rec.Direction())
	}
}

func TestOptimumValuesAreKept(t *testing.T) {
	tests := []struct {
		name   string
		metric health.MetricType
		value  float64
	}{
		{"sleep at the curve optimum", health.MetricSleepDuration, 7.5},
		{"steps on the plateau", health.MetricSteps, 12000},
		{"alcohol already at zero", health.MetricAlcoholConsumption, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(newFakeStore(), testNow)
			rec, err := e.FindTarget(context.Background(), tt.metric, tt.value, health.PeriodDay, testProfile)
			if err != nil {
				t.Fatalf("FindTarget() error = %v", err)
			}
			if rec.Target.TargetValue != tt.value {
				t.Errorf("target = %.2f, want current value %.2f kept", rec.Target.TargetValue, tt.value)
			}
			if rec.Direction() != "maintain" {
				t.Errorf("Direction() = %s, want maintain", rec.Direction())
			}
			if math.Abs(rec.BenefitMinutes) > 1e-9 {
				t.Errorf("benefit = %.4f, want 0 for a kept value", rec.BenefitMinutes)
			}
		})
	}
}

func TestRestingHeartRateTargetNearSixty(t *testing.T) {
	e := testEngine(newFakeStore(), testNow)
	rec, err := e.FindTarget(context.Background(), health.MetricRestingHeartRate, 70, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	if rec.Target.TargetValue < 59 || rec.Target.TargetValue > 61 {
		t.Errorf("target = %.2f bpm, want near the 60 bpm neutral point", rec.Target.TargetValue)
	}
	if rec.Direction() != "decrease" {
		t.Errorf("Direction() = %s, want decrease", rec.Direction())
	}
	if rec.BenefitMinutes <= 0 {
		t.Errorf("benefit = %.2f, want positive", rec.BenefitMinutes)
	}
}

func TestExerciseFromZeroRecommendsActivity(t *testing.T) {
	// Zero is impact-neutral for exercise, so the improvement step cannot be
	// multiplicative; it walks 20% toward the beneficial end of the domain.
	e := testEngine(newFakeStore(), testNow)
	rec, err := e.FindTarget(context.Background(), health.MetricExerciseMinutes, 0, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	if math.Abs(rec.Target.TargetValue-60) > 1e-9 {
		t.Errorf("target = %.2f min/day, want 60", rec.Target.TargetValue)
	}
	if rec.BenefitMinutes <= 0 {
		t.Errorf("benefit = %.2f, want positive", rec.BenefitMinutes)
	}
}

func TestCacheHitSameDay(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store, testNow)
	ctx := context.Background()

	first, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	second, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() second call error = %v", err)
	}

	if first.FromCache {
		t.Error("first call reported FromCache")
	}
	if !second.FromCache {
		t.Error("second same-day call did not hit the cache")
	}
	if second.Target.TargetValue != first.Target.TargetValue {
		t.Errorf("cached target %.2f differs from computed %.2f", second.Target.TargetValue, first.Target.TargetValue)
	}
	if store.setCount() != 1 {
		t.Errorf("store writes = %d, want 1", store.setCount())
	}
}

func TestNextDayRecomputes(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	if _, err := testEngine(store, testNow).FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile); err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	nextDay := testEngine(store, testNow.Add(24*time.Hour))
	rec, err := nextDay.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() next day error = %v", err)
	}

	if rec.FromCache {
		t.Error("yesterday's entry served today")
	}
	if store.setCount() != 2 {
		t.Errorf("store writes = %d, want 2 (one per day)", store.setCount())
	}
}

func TestVersionBumpInvalidates(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store, testNow)
	ctx := context.Background()

	if _, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile); err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}

	// Rewrite the stored entry as if an older engine had produced it.
	store.mu.Lock()
	for key, data := range store.data {
		var entry DailyTarget
		if err := json.Unmarshal(data, &entry); err != nil {
			store.mu.Unlock()
			t.Fatalf("unmarshal stored entry: %v", err)
		}
		entry.Version = "3.1.9"
		rewritten, err := json.Marshal(entry)
		if err != nil {
			store.mu.Unlock()
			t.Fatalf("marshal rewritten entry: %v", err)
		}
		store.data[key] = rewritten
	}
	store.mu.Unlock()

	rec, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() after version change error = %v", err)
	}
	if rec.FromCache {
		t.Error("entry from an older algorithm version was served")
	}
	if rec.Target.Version != AlgorithmVersion {
		t.Errorf("recomputed entry version = %s, want %s", rec.Target.Version, AlgorithmVersion)
	}
}

func TestBenefitRecomputedFromLiveValue(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store, testNow)
	ctx := context.Background()

	before, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	// The user walked more; the cached target stands but the remaining
	// benefit should shrink.
	after, err := e.FindTarget(ctx, health.MetricSteps, 4000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() with progress error = %v", err)
	}

	if !after.FromCache {
		t.Fatal("same-day call did not reuse the cached target")
	}
	if after.Target.TargetValue != before.Target.TargetValue {
		t.Errorf("target moved from %.2f to %.2f without recompute", before.Target.TargetValue, after.Target.TargetValue)
	}
	if after.BenefitMinutes <= 0 || after.BenefitMinutes >= before.BenefitMinutes {
		t.Errorf("benefit after progress = %.2f, want within (0, %.2f)", after.BenefitMinutes, before.BenefitMinutes)
	}
	if after.CurrentValue != 4000 {
		t.Errorf("CurrentValue = %.0f, want the live 4000", after.CurrentValue)
	}
}

func TestConcurrentRequestsComputeOnce(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store, testNow)
	ctx := context.Background()

	const callers = 8
	results := make([]Recommendation, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile)
			if err != nil {
				t.Errorf("FindTarget() error = %v", err)
				return
			}
			results[i] = rec
		}(i)
	}
	wg.Wait()

	if store.setCount() != 1 {
		t.Errorf("store writes = %d, want 1 (single computation)", store.setCount())
	}
	for i := 1; i < callers; i++ {
		if results[i].Target.TargetValue != results[0].Target.TargetValue {
			t.Errorf("caller %d target %.2f differs from %.2f", i, results[i].Target.TargetValue, results[0].Target.TargetValue)
		}
	}
}

func TestStoreFailuresDegradeToRecompute(t *testing.T) {
	store := newFakeStore()
	store.failGet = true
	store.failSet = true
	e := testEngine(store, testNow)

	rec, err := e.FindTarget(context.Background(), health.MetricSteps, 3000, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() with broken store error = %v, want nil", err)
	}
	if rec.FromCache {
		t.Error("broken store reported a cache hit")
	}
	if rec.BenefitMinutes <= 0 {
		t.Errorf("benefit = %.2f, want positive despite store failures", rec.BenefitMinutes)
	}
}

func TestUnknownMetricRejected(t *testing.T) {
	e := testEngine(newFakeStore(), testNow)
	_, err := e.FindTarget(context.Background(), health.MetricType("blood_glucose"), 110, health.PeriodDay, testProfile)
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("error = %v, want ErrUnknownMetric", err)
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store, testNow)
	ctx := context.Background()

	if _, err := e.FindTarget(ctx, health.MetricSleepDuration, 6, health.PeriodDay, testProfile); err != nil {
		t.Fatalf("FindTarget() error = %v", err)
	}
	if err := e.Invalidate(ctx, health.MetricSleepDuration, health.PeriodDay); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	rec, err := e.FindTarget(ctx, health.MetricSleepDuration, 6, health.PeriodDay, testProfile)
	if err != nil {
		t.Fatalf("FindTarget() after invalidate error = %v", err)
	}
	if rec.FromCache {
		t.Error("invalidated entry still served from cache")
	}
	if store.setCount() != 2 {
		t.Errorf("store writes = %d, want 2", store.setCount())
	}
}

func TestDailyTargetValidity(t *testing.T) {
	fresh := DailyTarget{CalculatedAt: testNow, Version: AlgorithmVersion}
	tests := []struct {
		name  string
		entry DailyTarget
		at    time.Time
		want  bool
	}{
		{"same day same version", fresh, testNow.Add(6 * time.Hour), true},
		{"same instant", fresh, testNow, true},
		{"next day", fresh, testNow.Add(24 * time.Hour), false},
		{"previous day entry at midnight rollover", fresh, time.Date(2026, 6, 16, 0, 0, 1, 0, time.UTC), false},
		{"older algorithm version", DailyTarget{CalculatedAt: testNow, Version: "3.1.0"}, testNow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Valid(tt.at); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanceledContext(t *testing.T) {
	e := testEngine(newFakeStore(), testNow)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.FindTarget(ctx, health.MetricSteps, 3000, health.PeriodDay, testProfile); err == nil {
		t.Error("FindTarget() with canceled context error = nil, want error")
	}
}
