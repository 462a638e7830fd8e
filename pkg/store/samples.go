package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ampedlife/amped/pkg/health"
)

// AddSample inserts one health reading. A zero ID gets a fresh identifier.
func (db *DB) AddSample(m health.Metric) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := db.Exec(`
		INSERT INTO samples (id, metric_type, value, source, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID.String(), string(m.Type), m.Value, string(m.Source), m.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("add sample: %w", err)
	}
	return nil
}

// AddSamples inserts a batch of readings in one transaction.
func (db *DB) AddSamples(metrics []health.Metric) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO samples (id, metric_type, value, source, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if _, err := stmt.Exec(m.ID.String(), string(m.Type), m.Value, string(m.Source), m.Timestamp.UnixMilli()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sample %s: %w", m.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

// SamplesSince returns the readings for one metric recorded at or after
// since, oldest first.
func (db *DB) SamplesSince(t health.MetricType, since time.Time) ([]health.Metric, error) {
	rows, err := db.Query(`
		SELECT id, metric_type, value, source, recorded_at
		FROM samples
		WHERE metric_type = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC
	`, string(t), since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()
	return scanSamples(rows)
}

// LatestPerType returns the most recent reading of every metric type.
func (db *DB) LatestPerType() ([]health.Metric, error) {
	// SQLite resolves the bare columns to the row holding MAX(recorded_at).
	rows, err := db.Query(`
		SELECT id, metric_type, value, source, MAX(recorded_at) AS recorded_at
		FROM samples
		GROUP BY metric_type
	`)
	if err != nil {
		return nil, fmt.Errorf("query latest samples: %w", err)
	}
	defer rows.Close()
	return scanSamples(rows)
}

// LatestValue returns the newest reading of one metric. The bool reports
// whether any reading exists.
func (db *DB) LatestValue(t health.MetricType) (float64, time.Time, bool, error) {
	var value float64
	var recordedAt int64
	err := db.QueryRow(`
		SELECT value, recorded_at FROM samples
		WHERE metric_type = ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`, string(t)).Scan(&value, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("query latest value: %w", err)
	}
	return value, time.UnixMilli(recordedAt).UTC(), true, nil
}

// SampleCount returns the total number of stored readings.
func (db *DB) SampleCount() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

func scanSamples(rows *sql.Rows) ([]health.Metric, error) {
	var out []health.Metric
	for rows.Next() {
		var id, metricType, source string
		var value float64
		var recordedAt int64
		if err := rows.Scan(&id, &metricType, &value, &source, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("sample id %q: %w", id, err)
		}
		out = append(out, health.Metric{
			ID:        parsed,
			Type:      health.MetricType(metricType),
			Value:     value,
			Source:    health.Source(source),
			Timestamp: time.UnixMilli(recordedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}
