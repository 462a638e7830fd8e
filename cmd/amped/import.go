package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import samples from a JSON file into the database",
	Long: "Store readings from a JSON file (array or {\"samples\": [...]}) in the\n" +
		"local database, where the impact, target and chart commands can find\n" +
		"them.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(_ *cobra.Command, args []string) error {
	metrics, err := readSampleFile(args[0], time.Now())
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := db.AddSamples(metrics); err != nil {
		return fmt.Errorf("store samples: %w", err)
	}
	fmt.Printf("imported %d samples into %s\n", len(metrics), db.Path)
	return nil
}
