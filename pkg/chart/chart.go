// Package chart cleans and aggregates historical metric series for trend
// display: interquartile outlier clipping, weighted moving-average smoothing,
// and period bucketing. It has no dependency on the impact pipeline and may
// run concurrently with it.
package chart

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/ampedlife/amped/pkg/health"
)

// Point is one dated reading in a historical series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Smoothing selects the moving-average window applied after outlier clipping.
type Smoothing string

const (
	SmoothingNone     Smoothing = "none"
	SmoothingLight    Smoothing = "light"    // window 3
	SmoothingModerate Smoothing = "moderate" // window 5
	SmoothingHeavy    Smoothing = "heavy"    // window 7
)

// Window returns the moving-average width for the level.
func (s Smoothing) Window() int {
	switch s {
	case SmoothingLight:
		return 3
	case SmoothingModerate:
		return 5
	case SmoothingHeavy:
		return 7
	default:
		return 0
	}
}

// ParseSmoothing validates a smoothing level string. Empty means none.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(s) {
	case SmoothingNone, SmoothingLight, SmoothingModerate, SmoothingHeavy:
		return Smoothing(s), nil
	case "":
		return SmoothingNone, nil
	}
	return "", fmt.Errorf("unknown smoothing %q (want none, light, moderate or heavy)", s)
}

// iqrMultiplier is the classic Tukey fence width.
const iqrMultiplier = 1.5

// minPointsForClipping is the smallest series with meaningful quartiles.
const minPointsForClipping = 4

// cumulativeMetrics are summed per bucket; everything else is averaged.
// Sleep has its own rule: same-day segments sum to a nightly total, then
// nights average per bucket.
var cumulativeMetrics = map[health.MetricType]bool{
	health.MetricSteps:           true,
	health.MetricExerciseMinutes: true,
	health.MetricActiveEnergy:    true,
}

// Processor cleans series. Each call is pure; the processor only carries
// configuration and is safe for concurrent use.
type Processor struct {
	logger    *slog.Logger
	smoothing Smoothing
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger for diagnostic output such as clip counts.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithSmoothing selects the moving-average level. Default is none.
func WithSmoothing(s Smoothing) Option {
	return func(p *Processor) { p.smoothing = s }
}

// New builds a Processor with smoothing disabled.
func New(opts ...Option) *Processor {
	p := &Processor{
		logger:    slog.Default(),
		smoothing: SmoothingNone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process cleans a series: sort by date, drop non-finite values, clip
// outliers to the interquartile fences, optionally smooth, then bucket by
// the period's display granularity (day → daily, month → weekly, year →
// monthly). Output is sorted by bucket start.
func (p *Processor) Process(series []Point, metric health.MetricType, period health.Period) []Point {
	pts := make([]Point, 0, len(series))
	for _, pt := range series {
		if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
			continue
		}
		pts = append(pts, pt)
	}
	if len(pts) == 0 {
		return nil
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	if clipped := clipOutliers(pts); clipped > 0 {
		p.logger.Debug("clipped series outliers", "metric", metric, "count", clipped)
	}
	if w := p.smoothing.Window(); w > 1 {
		pts = smooth(pts, w)
	}
	if metric == health.MetricSleepDuration {
		pts = nightlyTotals(pts)
	}
	return bucket(pts, metric, period)
}

// clipOutliers pins values to [Q1 − 1.5·IQR, Q3 + 1.5·IQR] in place and
// returns how many moved. Series too short for quartiles pass through.
func clipOutliers(pts []Point) int {
	if len(pts) < minPointsForClipping {
		return 0
	}
	values := make([]float64, len(pts))
	for i, pt := range pts {
		values[i] = pt.Value
	}
	sort.Float64s(values)

	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	lo, hi := q1-iqrMultiplier*iqr, q3+iqrMultiplier*iqr

	clipped := 0
	for i := range pts {
		switch {
		case pts[i].Value < lo:
			pts[i].Value = lo
			clipped++
		case pts[i].Value > hi:
			pts[i].Value = hi
			clipped++
		}
	}
	return clipped
}

// quantile interpolates linearly between order statistics (the R-7 method).
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	idx := int(math.Floor(pos))
	if idx >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(idx)
	return sorted[idx] + frac*(sorted[idx+1]-sorted[idx])
}

// smooth applies a triangular weighted moving average of width w (odd). The
// window shrinks symmetrically at the edges so first and last points stay
// anchored near their raw values.
func smooth(pts []Point, w int) []Point {
	half := w / 2
	out := make([]Point, len(pts))
	for i := range pts {
		span := half
		if i < span {
			span = i
		}
		if rest := len(pts) - 1 - i; rest < span {
			span = rest
		}
		var sum, weight float64
		for j := -span; j <= span; j++ {
			wj := float64(span + 1 - abs(j))
			sum += pts[i+j].Value * wj
			weight += wj
		}
		out[i] = Point{Date: pts[i].Date, Value: sum / weight}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// nightlyTotals sums same-day sleep segments into one point per night, so a
// fragmented night is not averaged down later.
func nightlyTotals(pts []Point) []Point {
	totals := make(map[time.Time]float64)
	for _, pt := range pts {
		totals[dayStart(pt.Date)] += pt.Value
	}
	out := make([]Point, 0, len(totals))
	for day, total := range totals {
		out = append(out, Point{Date: day, Value: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// bucket groups points by the period's display granularity and reduces each
// group: cumulative metrics sum, everything else averages.
func bucket(pts []Point, metric health.MetricType, period health.Period) []Point {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, pt := range pts {
		key := bucketStart(pt.Date, period)
		sums[key] += pt.Value
		counts[key]++
	}

	out := make([]Point, 0, len(sums))
	for key, sum := range sums {
		v := sum
		if !cumulativeMetrics[metric] {
			v = sum / float64(counts[key])
		}
		out = append(out, Point{Date: key, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// bucketStart maps a timestamp to its display bucket: daily points for a day
// view, weekly (Monday start) for a month view, monthly for a year view.
func bucketStart(at time.Time, period health.Period) time.Time {
	switch period {
	case health.PeriodMonth:
		day := dayStart(at)
		back := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -back)
	case health.PeriodYear:
		y, m, _ := at.UTC().Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return dayStart(at)
	}
}

func dayStart(at time.Time) time.Time {
	y, m, d := at.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
