package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/impact"
	"github.com/ampedlife/amped/pkg/projection"
)

var (
	projectFile    string
	projectMetrics []string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project habits onto life expectancy",
	Long: "Integrate the daily impact of current habits over the remaining\n" +
		"lifespan, with decay and evidence weighting, and report adjusted life\n" +
		"expectancy with a confidence interval.",
	RunE: runProject,
}

func init() {
	projectCmd.Flags().StringVar(&projectFile, "file", "", "JSON file of samples (array or {\"samples\": [...]})")
	projectCmd.Flags().StringArrayVar(&projectMetrics, "metric", nil, "Inline reading as type=value (repeatable)")
	addProfileFlags(projectCmd)
}

func runProject(_ *cobra.Command, _ []string) error {
	profile, err := profileFromFlags()
	if err != nil {
		return err
	}
	now := time.Now()
	metrics, err := gatherSamples(projectFile, projectMetrics, now)
	if err != nil {
		return err
	}

	engine := impact.New(impact.WithLogger(logger))
	snap := engine.ComputeImpact(metrics, health.PeriodDay, profile)
	proj := projection.Project(profile, snap.WeightedDailyMinutes, snap.EvidenceQuality, now)

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"projection":             proj,
			"weighted_daily_minutes": snap.WeightedDailyMinutes,
			"evidence_quality":       snap.EvidenceQuality,
		})
	}
	renderProjection(proj, profile.Age(now))
	return nil
}
