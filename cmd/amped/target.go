package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ampedlife/amped/pkg/cache"
	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/target"
)

var (
	targetValue    float64
	targetPeriod   string
	targetCacheDir string
	targetNoCache  bool
)

var targetCmd = &cobra.Command{
	Use:   "target <metric>",
	Short: "Recommend an achievable daily target for a metric",
	Long: "Search the metric's risk curve for a target value: neutral impact\n" +
		"when the current value is harmful, a 20% stretch when it already\n" +
		"helps. Recommendations are cached for the rest of the day.",
	Args: cobra.ExactArgs(1),
	RunE: runTarget,
}

func init() {
	targetCmd.Flags().Float64Var(&targetValue, "value", 0, "Current value (default: latest stored sample)")
	targetCmd.Flags().StringVar(&targetPeriod, "period", "day", "Benefit period: day, month or year")
	targetCmd.Flags().StringVar(&targetCacheDir, "cache-dir", "", "Recommendation cache directory (or set AMPED_CACHE_DIR; default ~/.amped/cache)")
	targetCmd.Flags().BoolVar(&targetNoCache, "no-cache", false, "Recompute without touching the on-disk cache")
	addProfileFlags(targetCmd)
}

func runTarget(cmd *cobra.Command, args []string) error {
	metricName := args[0]
	if !health.Valid(metricName) {
		return fmt.Errorf("unknown metric %q", metricName)
	}
	metric := health.MetricType(metricName)

	period, err := health.ParsePeriod(targetPeriod)
	if err != nil {
		return err
	}
	profile, err := profileFromFlags()
	if err != nil {
		return err
	}

	current := targetValue
	if !cmd.Flags().Changed("value") {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		value, _, ok, err := db.LatestValue(metric)
		db.Close()
		if err != nil {
			return fmt.Errorf("load latest %s: %w", metric, err)
		}
		if !ok {
			return fmt.Errorf("no stored samples for %s; pass --value", metric)
		}
		current = value
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openTargetCache(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing target cache", "error", err)
		}
	}()

	engine := target.New(store, target.WithLogger(logger))
	rec, err := engine.FindTarget(ctx, metric, current, period, profile)
	if err != nil {
		return err
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(struct {
			target.Recommendation
			Direction string `json:"direction"`
		}{rec, rec.Direction()})
	}
	renderRecommendation(metric, rec)
	return nil
}

// openTargetCache resolves the cache directory from the --cache-dir flag,
// the AMPED_CACHE_DIR environment variable, then ~/.amped/cache. --no-cache
// swaps in a memory-only store.
func openTargetCache(ctx context.Context) (*cache.Store, error) {
	if targetNoCache {
		return cache.NewMemory(cache.WithLogger(logger)), nil
	}
	dir := targetCacheDir
	if dir == "" {
		dir = os.Getenv("AMPED_CACHE_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = filepath.Join(home, ".amped", "cache")
	}
	store, err := cache.Open(ctx, dir, cache.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dir, err)
	}
	return store, nil
}
