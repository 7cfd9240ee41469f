package sla

import (
	"fmt"

	"retail-assortment-optimizer/pkg/storage"
)

// RunHealthMonitor watches a schedule's run history for KPI series that
// drift outside their control limits, narrowed from the teacher's Monitor
// interface (pkg/sla/monitor.go) down to the one KPI series this pipeline
// actually produces per run: recommendation count and allocation residual,
// both already captured in storage.RunRecord.
type RunHealthMonitor struct {
	chart  ControlChart
	config ControlChartConfig
}

// NewRunHealthMonitor returns a monitor using the 3-sigma default config.
func NewRunHealthMonitor() *RunHealthMonitor {
	return &RunHealthMonitor{chart: NewControlChart(), config: DefaultControlChartConfig()}
}

// RecommendationCountSeries converts a schedule's recent run history into
// a Metric series for the recommendation-count KPI.
func RecommendationCountSeries(records []storage.RunRecord) []Metric {
	out := make([]Metric, 0, len(records))
	for _, r := range records {
		out = append(out, Metric{
			Timestamp: r.FinishedAt,
			Value:     float64(r.RecommendationsEmitted),
			Labels:    map[string]string{"schedule": r.ScheduleName},
		})
	}
	return out
}

// AllocationResidualSeries converts a schedule's recent run history into a
// Metric series for the unallocatable-unit KPI.
func AllocationResidualSeries(records []storage.RunRecord) []Metric {
	out := make([]Metric, 0, len(records))
	for _, r := range records {
		out = append(out, Metric{
			Timestamp: r.FinishedAt,
			Value:     float64(r.UnallocatableUnits),
			Labels:    map[string]string{"schedule": r.ScheduleName},
		})
	}
	return out
}

// CheckSeries reports whether the latest point in series is an outlier
// against the control limits computed from the rest of the series. A
// latest point inside those limits keeps any trend flag the chart's
// trend detection gave it. It requires at least config.MinSamples
// points; fewer returns (nil, error) rather than a false "healthy"
// verdict.
func (m *RunHealthMonitor) CheckSeries(kpi RunKPI, series []Metric) (*ControlChartPoint, error) {
	if len(series) < m.config.MinSamples {
		return nil, fmt.Errorf("sla: %s: insufficient samples: %d < %d", kpi, len(series), m.config.MinSamples)
	}
	points, err := m.chart.GenerateChart(series, m.config)
	if err != nil {
		return nil, fmt.Errorf("sla: %s: %w", kpi, err)
	}
	latest := points[len(points)-1]
	mean, ucl, lcl, err := m.chart.CalculateControlLimits(series[:len(series)-1], m.config.SigmaLevel)
	if err != nil {
		return nil, fmt.Errorf("sla: %s: %w", kpi, err)
	}
	latest.Mean, latest.UCL, latest.LCL = mean, ucl, lcl
	switch {
	case latest.Value > ucl:
		latest.IsOutlier, latest.OutlierType = true, OutlierTypeAbove
	case latest.Value < lcl:
		latest.IsOutlier, latest.OutlierType = true, OutlierTypeBelow
	case latest.OutlierType != OutlierTypeTrend:
		latest.IsOutlier, latest.OutlierType = false, OutlierTypeNone
	}
	return &latest, nil
}
