package sla

import (
	"testing"
	"time"
)

func TestControlChart_CalculateControlLimits(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	series := []Metric{
		{Timestamp: now, Value: 10.0},
		{Timestamp: now, Value: 12.0},
		{Timestamp: now, Value: 11.0},
		{Timestamp: now, Value: 13.0},
		{Timestamp: now, Value: 9.0},
	}

	mean, ucl, lcl, err := chart.CalculateControlLimits(series, 3.0)
	if err != nil {
		t.Fatalf("CalculateControlLimits failed: %v", err)
	}

	expectedMean := 11.0
	if mean < expectedMean-0.1 || mean > expectedMean+0.1 {
		t.Errorf("expected mean %v, got %v", expectedMean, mean)
	}
	if ucl <= mean {
		t.Errorf("UCL (%v) should be greater than mean (%v)", ucl, mean)
	}
	if lcl >= mean {
		t.Errorf("LCL (%v) should be less than mean (%v)", lcl, mean)
	}

	t.Logf("control limits: mean=%.2f, UCL=%.2f, LCL=%.2f", mean, ucl, lcl)
}

func TestControlChart_DetectOutliers(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	// A recommendation-count series where one nightly run emitted a
	// wildly inflated count (e.g. a dedup-key collision bug).
	series := []Metric{
		{Timestamp: now.Add(-5 * 24 * time.Hour), Value: 10.0},
		{Timestamp: now.Add(-4 * 24 * time.Hour), Value: 11.0},
		{Timestamp: now.Add(-3 * 24 * time.Hour), Value: 12.0},
		{Timestamp: now.Add(-2 * 24 * time.Hour), Value: 11.5},
		{Timestamp: now.Add(-1 * 24 * time.Hour), Value: 1000.0}, // runaway run
		{Timestamp: now, Value: 10.5},
	}

	mean, ucl, lcl, err := chart.CalculateControlLimits(series, 3.0)
	if err != nil {
		t.Fatalf("CalculateControlLimits failed: %v", err)
	}
	t.Logf("control limits: mean=%.2f, UCL=%.2f, LCL=%.2f", mean, ucl, lcl)

	outliers, err := chart.DetectOutliers(series, 3.0)
	if err != nil {
		t.Fatalf("DetectOutliers failed: %v", err)
	}

	t.Logf("found %d outlier runs", len(outliers))
	if len(outliers) == 0 {
		t.Error("expected the runaway run to be flagged as an outlier")
	}

	for _, outlier := range outliers {
		if !outlier.IsOutlier {
			t.Error("expected IsOutlier to be true")
		}
		t.Logf("outlier run: value=%.2f at %v, type=%s", outlier.Value, outlier.Timestamp, outlier.OutlierType)
	}
}

func TestControlChart_GenerateChart(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	series := []Metric{
		{Timestamp: now.Add(-5 * 24 * time.Hour), Value: 10.0},
		{Timestamp: now.Add(-4 * 24 * time.Hour), Value: 11.0},
		{Timestamp: now.Add(-3 * 24 * time.Hour), Value: 12.0},
		{Timestamp: now.Add(-2 * 24 * time.Hour), Value: 11.5},
		{Timestamp: now.Add(-1 * 24 * time.Hour), Value: 10.5},
		{Timestamp: now, Value: 11.0},
	}

	cfg := ControlChartConfig{
		SigmaLevel:           3.0,
		MinSamples:           5,
		EnableTrendDetection: false,
		TrendWindowSize:      3,
	}

	points, err := chart.GenerateChart(series, cfg)
	if err != nil {
		t.Fatalf("GenerateChart failed: %v", err)
	}

	if len(points) != len(series) {
		t.Errorf("expected %d points, got %d", len(series), len(points))
	}

	for i, point := range points {
		if point.Mean == 0 {
			t.Errorf("run %d has zero mean", i)
		}
		if point.UCL == 0 {
			t.Errorf("run %d has zero UCL", i)
		}
		t.Logf("run %d: value=%.2f, mean=%.2f, UCL=%.2f, LCL=%.2f, isOutlier=%v",
			i, point.Value, point.Mean, point.UCL, point.LCL, point.IsOutlier)
	}
}

func TestControlChart_TrendDetection(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	// Allocation residual creeping up night over night, none of which
	// individually trips the sigma bounds.
	series := []Metric{
		{Timestamp: now.Add(-6 * 24 * time.Hour), Value: 10.0},
		{Timestamp: now.Add(-5 * 24 * time.Hour), Value: 11.0},
		{Timestamp: now.Add(-4 * 24 * time.Hour), Value: 12.0},
		{Timestamp: now.Add(-3 * 24 * time.Hour), Value: 13.0},
		{Timestamp: now.Add(-2 * 24 * time.Hour), Value: 14.0},
		{Timestamp: now.Add(-1 * 24 * time.Hour), Value: 15.0},
		{Timestamp: now, Value: 16.0},
	}

	cfg := ControlChartConfig{
		SigmaLevel:           3.0,
		MinSamples:           5,
		EnableTrendDetection: true,
		TrendWindowSize:      4,
	}

	points, err := chart.GenerateChart(series, cfg)
	if err != nil {
		t.Fatalf("GenerateChart failed: %v", err)
	}

	trendCount := 0
	for _, point := range points {
		if point.OutlierType == OutlierTypeTrend {
			trendCount++
		}
	}

	if trendCount == 0 {
		t.Error("expected the steady climb to be flagged as a trend")
	}

	t.Logf("flagged %d trend runs", trendCount)
}

func TestControlChart_InsufficientSamples(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	series := []Metric{
		{Timestamp: now, Value: 10.0},
		{Timestamp: now, Value: 11.0},
	}

	cfg := ControlChartConfig{
		SigmaLevel: 3.0,
		MinSamples: 5,
	}

	_, err := chart.GenerateChart(series, cfg)
	if err == nil {
		t.Error("expected an error with fewer runs than MinSamples")
	}
}

func TestCalculateMovingAverage(t *testing.T) {
	now := time.Now()
	series := []Metric{
		{Timestamp: now, Value: 10.0},
		{Timestamp: now, Value: 20.0},
		{Timestamp: now, Value: 30.0},
		{Timestamp: now, Value: 40.0},
		{Timestamp: now, Value: 50.0},
	}

	result := CalculateMovingAverage(series, 3)

	if len(result) != len(series) {
		t.Errorf("expected %d values, got %d", len(series), len(result))
	}

	for i, val := range result {
		t.Logf("moving average[%d] = %.2f", i, val)
	}
}

func TestCalculateStandardDeviation(t *testing.T) {
	now := time.Now()
	series := []Metric{
		{Timestamp: now, Value: 10.0},
		{Timestamp: now, Value: 12.0},
		{Timestamp: now, Value: 23.0},
		{Timestamp: now, Value: 23.0},
		{Timestamp: now, Value: 16.0},
		{Timestamp: now, Value: 23.0},
		{Timestamp: now, Value: 21.0},
		{Timestamp: now, Value: 16.0},
	}

	stdDev := CalculateStandardDeviation(series)

	if stdDev == 0 {
		t.Error("expected non-zero standard deviation")
	}

	t.Logf("standard deviation: %.2f", stdDev)
}

func TestControlChart_NoMetrics(t *testing.T) {
	chart := NewControlChart()

	series := []Metric{}

	_, _, _, err := chart.CalculateControlLimits(series, 3.0)
	if err == nil {
		t.Error("expected an error for an empty run series")
	}
}

func TestControlChart_SingleMetric(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	series := []Metric{
		{Timestamp: now, Value: 10.0},
	}

	mean, ucl, lcl, err := chart.CalculateControlLimits(series, 3.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mean != 10.0 {
		t.Errorf("expected mean 10.0, got %.2f", mean)
	}
	if ucl != mean || lcl != mean {
		t.Errorf("expected UCL and LCL to equal mean for a single run")
	}
}

func TestControlChart_HighVariance(t *testing.T) {
	chart := NewControlChart()

	now := time.Now()
	// A schedule alternating between healthy and badly degraded runs.
	series := []Metric{
		{Timestamp: now, Value: 1.0},
		{Timestamp: now, Value: 100.0},
		{Timestamp: now, Value: 2.0},
		{Timestamp: now, Value: 99.0},
		{Timestamp: now, Value: 3.0},
	}

	mean, ucl, lcl, err := chart.CalculateControlLimits(series, 3.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ucl-mean < 50.0 {
		t.Errorf("expected a wide UCL-mean gap for high-variance runs, got %.2f", ucl-mean)
	}

	t.Logf("high variance: mean=%.2f, UCL=%.2f, LCL=%.2f", mean, ucl, lcl)
}
