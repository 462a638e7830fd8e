// Package main implements the amped CLI: life-impact snapshots, longevity
// projections, daily targets and trend charts over locally stored health
// samples.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ampedlife/amped/pkg/mortality"
	"github.com/ampedlife/amped/pkg/store"
)

var (
	flagVerbose bool
	flagJSON    bool
	flagDB      string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "amped",
	Short: "Life-impact analysis for everyday health metrics",
	Long: "Amped converts health readings (steps, sleep, resting heart rate, ...)\n" +
		"into minutes of life gained or lost per day, projects them onto life\n" +
		"expectancy, and recommends achievable daily targets.",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level := slog.LevelError
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return mortality.Validate()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print machine-readable JSON instead of formatted output")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (or set AMPED_DB; default ~/.amped/amped.db)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(importCmd)
}

// openDB resolves the database path from the --db flag, the AMPED_DB
// environment variable, then the default location.
func openDB() (*store.DB, error) {
	path := flagDB
	if path == "" {
		path = os.Getenv("AMPED_DB")
	}
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}
