package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ampedlife/amped/pkg/chart"
	"github.com/ampedlife/amped/pkg/health"
)

var (
	chartPeriod    string
	chartSmoothing string
)

var chartCmd = &cobra.Command{
	Use:   "chart <metric>",
	Short: "Plot a stored metric's trend as a sparkline",
	Long: "Load the metric's stored history for the period, clean it (outlier\n" +
		"clipping, optional smoothing, bucketing) and draw the buckets as an\n" +
		"ASCII sparkline.",
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartPeriod, "period", "month", "History window: day, month or year")
	chartCmd.Flags().StringVar(&chartSmoothing, "smoothing", "none", "Moving average level: none, light, moderate or heavy")
}

func runChart(_ *cobra.Command, args []string) error {
	metricName := args[0]
	if !health.Valid(metricName) {
		return fmt.Errorf("unknown metric %q", metricName)
	}
	metric := health.MetricType(metricName)

	period, err := health.ParsePeriod(chartPeriod)
	if err != nil {
		return err
	}
	smoothing, err := chart.ParseSmoothing(chartSmoothing)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	now := time.Now()
	since := now.Add(-time.Duration(period.Days()) * 24 * time.Hour)
	samples, err := db.SamplesSince(metric, since)
	if err != nil {
		return fmt.Errorf("load %s history: %w", metric, err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("no stored %s samples in the last %s", metric, period)
	}

	series := make([]chart.Point, len(samples))
	for i, m := range samples {
		series[i] = chart.Point{Date: m.Timestamp, Value: m.Value}
	}
	processor := chart.New(chart.WithSmoothing(smoothing), chart.WithLogger(logger))
	points := processor.Process(series, metric, period)

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"metric":    metric,
			"period":    period,
			"smoothing": smoothing,
			"points":    points,
		})
	}
	renderSparkline(metric, period, points)
	return nil
}
