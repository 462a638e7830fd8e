package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/ampedlife/amped/pkg/chart"
	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/impact"
	"github.com/ampedlife/amped/pkg/projection"
	"github.com/ampedlife/amped/pkg/target"
)

const (
	dividerWidth = 50
	maxBarWidth  = 24
)

// comparisonBand mirrors the snapshot's dead zone: totals inside it render
// grey rather than green or red.
const comparisonBand = 0.5

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
	grey  = color.New(color.FgHiBlack)
	bold  = color.New(color.Bold)
)

func printDivider() {
	fmt.Println(strings.Repeat("─", dividerWidth))
}

// minutesCell formats a signed minute amount, colored by direction.
func minutesCell(minutes float64) string {
	text := fmt.Sprintf("%+7.1f min", minutes)
	switch {
	case minutes > comparisonBand:
		return green.Sprint(text)
	case minutes < -comparisonBand:
		return red.Sprint(text)
	default:
		return grey.Sprint(text)
	}
}

// bar draws a block bar scaled against the largest absolute contribution.
func bar(minutes, maxAbs float64) string {
	if maxAbs <= 0 {
		return grey.Sprint("·")
	}
	length := int(math.Round(math.Abs(minutes) / maxAbs * maxBarWidth))
	if length == 0 {
		return grey.Sprint("·")
	}
	blocks := strings.Repeat("█", length)
	if minutes < 0 {
		return red.Sprint(blocks)
	}
	return green.Sprint(blocks)
}

func formatValue(value float64, unit string) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func renderSnapshot(snap impact.Snapshot, metrics []health.Metric) {
	values := latestValues(metrics)

	fmt.Printf("\n⚡ Life Impact (%s)\n", snap.Period)
	printDivider()

	if len(snap.Details) == 0 {
		fmt.Println("  no calibrated metrics in input")
		return
	}

	nameWidth := 0
	maxAbs := 0.0
	for _, d := range snap.Details {
		if len(d.Metric) > nameWidth {
			nameWidth = len(d.Metric)
		}
		if a := math.Abs(snap.Contributions[d.Metric]); a > maxAbs {
			maxAbs = a
		}
	}

	for _, d := range snap.Details {
		contribution := snap.Contributions[d.Metric]
		fmt.Printf("  %-*s  %14s  %s  %s",
			nameWidth, d.Metric,
			formatValue(values[d.Metric], health.Units[d.Metric]),
			minutesCell(contribution),
			bar(contribution, maxAbs))
		if d.Clamped {
			fmt.Print(grey.Sprint("  (clamped)"))
		}
		fmt.Println()
	}

	if len(snap.AppliedRules) > 0 {
		fmt.Printf("  %s %s\n", grey.Sprint("interactions:"), strings.Join(snap.AppliedRules, ", "))
	}

	printDivider()
	fmt.Printf("  Net: %s per %s\n", minutesCell(snap.TotalMinutes), snap.Period)
	fmt.Printf("  %s\n", verdict(snap.TotalMinutes))
	fmt.Printf("  Evidence quality: %.0f%%\n\n", snap.EvidenceQuality*100)
}

func renderProjection(proj projection.LifeProjection, age int) {
	delta := proj.AdjustedYears - proj.BaselineYears
	deltaCell := fmt.Sprintf("%+.1f years", delta)
	switch {
	case delta > 0:
		deltaCell = green.Sprint(deltaCell)
	case delta < 0:
		deltaCell = red.Sprint(deltaCell)
	default:
		deltaCell = grey.Sprint(deltaCell)
	}

	fmt.Println("\n🔮 Life Projection")
	printDivider()
	fmt.Printf("  Current age:  %d\n", age)
	fmt.Printf("  Baseline:     %.1f years\n", proj.BaselineYears)
	fmt.Printf("  Adjusted:     %s (%s)\n", bold.Sprintf("%.1f years", proj.AdjustedYears), deltaCell)
	fmt.Printf("  Confidence:   %.0f%% (±%.1f years)\n\n", proj.ConfidencePercentage, proj.ConfidenceIntervalYears)
}

func renderRecommendation(metric health.MetricType, rec target.Recommendation) {
	unit := health.Units[metric]

	fmt.Printf("\n🎯 Daily Target: %s\n", metric)
	printDivider()
	fmt.Printf("  Current:  %s\n", formatValue(rec.CurrentValue, unit))
	fmt.Printf("  Target:   %s (%s)\n", bold.Sprint(formatValue(rec.Target.TargetValue, unit)), rec.Direction())
	fmt.Printf("  Benefit:  %s per %s\n", minutesCell(rec.BenefitMinutes), rec.Target.Period)
	if rec.Target.Approximate {
		fmt.Printf("  %s\n", grey.Sprint("note: approximate target"))
	}
	if rec.FromCache {
		fmt.Printf("  %s\n", grey.Sprint("cached earlier today"))
	}
	fmt.Println()
}

// sparkRamp maps normalized bucket values to block heights.
var sparkRamp = []rune("▁▂▃▄▅▆▇█")

func renderSparkline(metric health.MetricType, period health.Period, points []chart.Point) {
	fmt.Printf("\n📈 %s (%s, %s buckets)\n", metric, period, bucketWord(period))
	printDivider()

	if len(points) == 0 {
		fmt.Println("  series empty after cleaning")
		return
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}

	var line strings.Builder
	for _, p := range points {
		idx := len(sparkRamp) / 2
		if hi > lo {
			idx = int(math.Round((p.Value - lo) / (hi - lo) * float64(len(sparkRamp)-1)))
		}
		line.WriteRune(sparkRamp[idx])
	}
	fmt.Printf("  %s\n", line.String())
	fmt.Printf("  %s\n\n", grey.Sprintf("%d buckets · min %s · max %s · last %s",
		len(points),
		strconv.FormatFloat(lo, 'f', -1, 64),
		strconv.FormatFloat(hi, 'f', -1, 64),
		strconv.FormatFloat(points[len(points)-1].Value, 'f', -1, 64)))
}

func bucketWord(period health.Period) string {
	switch period {
	case health.PeriodMonth:
		return "weekly"
	case health.PeriodYear:
		return "monthly"
	default:
		return "daily"
	}
}
