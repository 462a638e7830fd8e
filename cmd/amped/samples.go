package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ampedlife/amped/pkg/health"
)

// Profile flags shared by the impact, project and target commands.
var (
	flagBirthYear int
	flagGender    string
	flagHeightM   float64
	flagWeightKg  float64
)

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagBirthYear, "birth-year", 0, "Birth year (default: engine assumes age 38)")
	cmd.Flags().StringVar(&flagGender, "gender", "", "Gender for mortality tables: male, female (default: mean of both)")
	cmd.Flags().Float64Var(&flagHeightM, "height-m", 0, "Height in meters, used for BMI (default 1.70)")
	cmd.Flags().Float64Var(&flagWeightKg, "weight-kg", 0, "Weight in kilograms")
}

func profileFromFlags() (health.Profile, error) {
	switch health.Gender(flagGender) {
	case health.GenderMale, health.GenderFemale, health.GenderUnspecified:
	default:
		return health.Profile{}, fmt.Errorf("unknown gender %q (want male or female)", flagGender)
	}
	return health.Profile{
		BirthYear:    flagBirthYear,
		Gender:       health.Gender(flagGender),
		HeightMeters: flagHeightM,
		WeightKg:     flagWeightKg,
	}, nil
}

// sampleJSON is the file form of one reading, matching the server's ingest
// body. Timestamp and source are optional.
type sampleJSON struct {
	Type      string     `json:"type"`
	Value     float64    `json:"value"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Source    string     `json:"source,omitempty"`
}

func (s sampleJSON) metric(now time.Time) (health.Metric, error) {
	if !health.Valid(s.Type) {
		return health.Metric{}, fmt.Errorf("unknown metric type %q", s.Type)
	}
	at := now
	if s.Timestamp != nil {
		at = *s.Timestamp
	}
	source := health.Source(s.Source)
	switch source {
	case "":
		source = health.SourceManual
	case health.SourceSensor, health.SourceManual, health.SourceDerived:
	default:
		return health.Metric{}, fmt.Errorf("unknown source %q", s.Source)
	}
	return health.New(health.MetricType(s.Type), s.Value, source, at), nil
}

// readSampleFile loads readings from a JSON file holding either a bare array
// of samples or an object with a "samples" key (the server ingest shape).
func readSampleFile(path string, now time.Time) ([]health.Metric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []sampleJSON
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		var wrapped struct {
			Samples []sampleJSON `json:"samples"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		raw = wrapped.Samples
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s contains no samples", path)
	}

	out := make([]health.Metric, 0, len(raw))
	for _, s := range raw {
		m, err := s.metric(now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// parseMetricFlags converts repeated --metric type=value pairs.
func parseMetricFlags(pairs []string, now time.Time) ([]health.Metric, error) {
	out := make([]health.Metric, 0, len(pairs))
	for _, pair := range pairs {
		name, raw, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("--metric %q: want type=value", pair)
		}
		if !health.Valid(name) {
			return nil, fmt.Errorf("unknown metric type %q", name)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--metric %q: %q is not a number", pair, raw)
		}
		out = append(out, health.New(health.MetricType(name), value, health.SourceManual, now))
	}
	return out, nil
}

// gatherSamples resolves a command's readings: an explicit file and/or
// --metric flags when given, otherwise the latest stored reading of every
// type from the database.
func gatherSamples(file string, pairs []string, now time.Time) ([]health.Metric, error) {
	var metrics []health.Metric
	if file != "" {
		fromFile, err := readSampleFile(file, now)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, fromFile...)
	}
	if len(pairs) > 0 {
		fromFlags, err := parseMetricFlags(pairs, now)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, fromFlags...)
	}
	if len(metrics) > 0 {
		return metrics, nil
	}

	db, err := openDB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	metrics, err = db.LatestPerType()
	if err != nil {
		return nil, fmt.Errorf("load stored samples: %w", err)
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no samples: pass --file or --metric, or import readings first")
	}
	return metrics, nil
}
