package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/impact"
)

var (
	impactFile    string
	impactMetrics []string
	impactPeriod  string
)

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Show minutes of life gained or lost per metric",
	Long: "Aggregate health readings into a life-impact snapshot: each metric's\n" +
		"weighted minutes per day, interaction adjustments, and the net total\n" +
		"scaled to the requested period.",
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().StringVar(&impactFile, "file", "", "JSON file of samples (array or {\"samples\": [...]})")
	impactCmd.Flags().StringArrayVar(&impactMetrics, "metric", nil, "Inline reading as type=value (repeatable)")
	impactCmd.Flags().StringVar(&impactPeriod, "period", "day", "Scaling period: day, month or year")
	addProfileFlags(impactCmd)
}

func runImpact(_ *cobra.Command, _ []string) error {
	period, err := health.ParsePeriod(impactPeriod)
	if err != nil {
		return err
	}
	profile, err := profileFromFlags()
	if err != nil {
		return err
	}
	now := time.Now()
	metrics, err := gatherSamples(impactFile, impactMetrics, now)
	if err != nil {
		return err
	}

	engine := impact.New(impact.WithLogger(logger))
	snap := engine.ComputeImpact(metrics, period, profile)

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(snap)
	}
	renderSnapshot(snap, metrics)
	return nil
}

// verdict maps a net minute total to a one-line summary.
func verdict(totalMinutes float64) string {
	switch {
	case totalMinutes > 1:
		return "🟢 your habits are adding time"
	case totalMinutes < -1:
		return "🔴 your habits are costing time"
	default:
		return "⚪ roughly break-even"
	}
}

// latestValues collapses samples to the newest reading per type, for the
// value column in the rendered table.
func latestValues(metrics []health.Metric) map[health.MetricType]float64 {
	latest := health.Latest(metrics)
	values := make(map[health.MetricType]float64, len(latest))
	for t, m := range latest {
		values[t] = m.Value
	}
	return values
}
