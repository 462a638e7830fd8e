package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ampedlife/amped/pkg/chart"
	"github.com/ampedlife/amped/pkg/health"
	"github.com/ampedlife/amped/pkg/projection"
	"github.com/ampedlife/amped/pkg/target"
)

// sampleJSON is the wire form of one reading. Timestamp and source are
// optional; absent values default to now and manual entry.
type sampleJSON struct {
	Type      string     `json:"type"`
	Value     float64    `json:"value"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Source    string     `json:"source,omitempty"`
}

func (s *Server) toMetrics(in []sampleJSON, now time.Time) ([]health.Metric, error) {
	out := make([]health.Metric, 0, len(in))
	for _, m := range in {
		if !health.Valid(m.Type) {
			return nil, fmt.Errorf("unknown metric type %q", m.Type)
		}
		at := now
		if m.Timestamp != nil {
			at = *m.Timestamp
		}
		source := health.Source(m.Source)
		switch source {
		case "":
			source = health.SourceManual
		case health.SourceSensor, health.SourceManual, health.SourceDerived:
		default:
			return nil, fmt.Errorf("unknown source %q", m.Source)
		}
		out = append(out, health.New(health.MetricType(m.Type), m.Value, source, at))
	}
	return out, nil
}

// loadMetrics resolves the request's samples: the body's own metrics when
// present, otherwise the latest stored reading of every type.
func (s *Server) loadMetrics(in []sampleJSON, now time.Time) ([]health.Metric, error) {
	if len(in) > 0 {
		return s.toMetrics(in, now)
	}
	metrics, err := s.db.LatestPerType()
	if err != nil {
		return nil, fmt.Errorf("loading stored samples: %w", err)
	}
	return metrics, nil
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Metrics []sampleJSON   `json:"metrics"`
		Period  string         `json:"period"`
		Profile health.Profile `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	period := health.PeriodDay
	if req.Period != "" {
		var err error
		if period, err = health.ParsePeriod(req.Period); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	metrics, err := s.loadMetrics(req.Metrics, s.now())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.engine.ComputeImpact(metrics, period, req.Profile)
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Metrics []sampleJSON   `json:"metrics"`
		Profile health.Profile `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	now := s.now()
	metrics, err := s.loadMetrics(req.Metrics, now)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.engine.ComputeImpact(metrics, health.PeriodDay, req.Profile)
	proj := projection.Project(req.Profile, snap.WeightedDailyMinutes, snap.EvidenceQuality, now)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"projection":             proj,
		"weighted_daily_minutes": snap.WeightedDailyMinutes,
		"evidence_quality":       snap.EvidenceQuality,
	})
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	metricName := chi.URLParam(r, "metric")
	if !health.Valid(metricName) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown metric %q", metricName))
		return
	}
	metric := health.MetricType(metricName)

	var req struct {
		CurrentValue *float64       `json:"current_value"`
		Period       string         `json:"period"`
		Profile      health.Profile `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	period := health.PeriodDay
	if req.Period != "" {
		var err error
		if period, err = health.ParsePeriod(req.Period); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var current float64
	switch {
	case req.CurrentValue != nil:
		current = *req.CurrentValue
	default:
		value, _, ok, err := s.db.LatestValue(metric)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("no stored samples for %s; provide current_value", metric))
			return
		}
		current = value
	}

	rec, err := s.targets.FindTarget(r.Context(), metric, current, period, req.Profile)
	if err != nil {
		if errors.Is(err, target.ErrUnknownMetric) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		target.Recommendation
		Direction string `json:"direction"`
	}{rec, rec.Direction()})
}

func (s *Server) handleAddSamples(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Samples []sampleJSON `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Samples) == 0 {
		s.writeError(w, http.StatusBadRequest, "samples required")
		return
	}
	metrics, err := s.toMetrics(req.Samples, s.now())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.db.AddSamples(metrics); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"status": "ok",
		"count":  len(metrics),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	metricName := chi.URLParam(r, "metric")
	if !health.Valid(metricName) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown metric %q", metricName))
		return
	}
	metric := health.MetricType(metricName)

	period := health.PeriodMonth
	if q := r.URL.Query().Get("period"); q != "" {
		var err error
		if period, err = health.ParsePeriod(q); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	smoothing, err := chart.ParseSmoothing(r.URL.Query().Get("smoothing"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now()
	since := now.Add(-time.Duration(period.Days()) * 24 * time.Hour)
	samples, err := s.db.SamplesSince(metric, since)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	series := make([]chart.Point, len(samples))
	for i, m := range samples {
		series[i] = chart.Point{Date: m.Timestamp, Value: m.Value}
	}
	processor := chart.New(chart.WithSmoothing(smoothing), chart.WithLogger(s.logger))
	points := processor.Process(series, metric, period)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"metric":    metric,
		"period":    period,
		"smoothing": smoothing,
		"points":    points,
	})
}
