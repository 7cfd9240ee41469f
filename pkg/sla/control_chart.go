package sla

import (
	"fmt"
	"math"
)

// runKPIControlChart is the default ControlChart implementation: plain
// Shewhart 3-sigma control limits over a run KPI series, the same
// statistics the teacher ran over workload latency/error-rate samples,
// now pointed at a schedule's nightly RecommendationCountSeries /
// AllocationResidualSeries instead.
type runKPIControlChart struct{}

// NewControlChart returns the default control chart generator.
func NewControlChart() ControlChart {
	return &runKPIControlChart{}
}

// GenerateChart evaluates every sample in a run KPI series against control
// limits computed from the whole series, and optionally flags runs of
// consecutive increasing/decreasing values as a trend.
func (c *runKPIControlChart) GenerateChart(series []Metric, cfg ControlChartConfig) ([]ControlChartPoint, error) {
	if len(series) < cfg.MinSamples {
		return nil, fmt.Errorf("insufficient run samples: %d < %d", len(series), cfg.MinSamples)
	}

	mean, ucl, lcl, err := c.CalculateControlLimits(series, cfg.SigmaLevel)
	if err != nil {
		return nil, err
	}

	points := make([]ControlChartPoint, len(series))
	for i, sample := range series {
		point := ControlChartPoint{
			Timestamp:   sample.Timestamp,
			Value:       sample.Value,
			Mean:        mean,
			UCL:         ucl,
			LCL:         lcl,
			IsOutlier:   false,
			OutlierType: OutlierTypeNone,
		}

		if sample.Value > ucl {
			point.IsOutlier = true
			point.OutlierType = OutlierTypeAbove
		} else if sample.Value < lcl {
			point.IsOutlier = true
			point.OutlierType = OutlierTypeBelow
		}

		points[i] = point
	}

	if cfg.EnableTrendDetection {
		c.detectTrends(points, cfg.TrendWindowSize)
	}

	return points, nil
}

// DetectOutliers flags the runs in series whose KPI value falls outside
// the control limits, using a median/MAD screening pass to keep one
// extreme bad run from dragging the limits wide enough to hide the rest.
func (c *runKPIControlChart) DetectOutliers(series []Metric, sigmaLevel float64) ([]ControlChartPoint, error) {
	if len(series) == 0 {
		return nil, nil
	}

	// Robust initial screening via median/MAD, so one catastrophic run
	// (e.g. a near-total allocation failure) doesn't inflate the 3-sigma
	// limits enough to mask the rest of a genuinely unhealthy stretch.
	outlierIdx := c.screenOutliersRobust(series)

	if len(outlierIdx) > 0 {
		var filtered []Metric
		for i, sample := range series {
			if !outlierIdx[i] {
				filtered = append(filtered, sample)
			}
		}

		if len(filtered) >= 2 {
			_, ucl, lcl, err := c.CalculateControlLimits(filtered, sigmaLevel)
			if err == nil {
				refined := make(map[int]bool)
				for i, sample := range series {
					if sample.Value > ucl || sample.Value < lcl {
						refined[i] = true
					}
				}
				outlierIdx = refined
			}
		}
	}

	var cleanRuns []Metric
	for i, sample := range series {
		if !outlierIdx[i] {
			cleanRuns = append(cleanRuns, sample)
		}
	}

	mean, ucl, lcl, err := c.CalculateControlLimits(cleanRuns, sigmaLevel)
	if err != nil {
		// Every run screened as an outlier; fall back to the full series
		// rather than report "insufficient data" for a genuinely bad run.
		mean, ucl, lcl, err = c.CalculateControlLimits(series, sigmaLevel)
		if err != nil {
			return nil, err
		}
	}

	var outliers []ControlChartPoint
	for i, sample := range series {
		if !outlierIdx[i] {
			continue
		}
		outlierType := OutlierTypeAbove
		if sample.Value < lcl {
			outlierType = OutlierTypeBelow
		}
		outliers = append(outliers, ControlChartPoint{
			Timestamp:   sample.Timestamp,
			Value:       sample.Value,
			Mean:        mean,
			UCL:         ucl,
			LCL:         lcl,
			IsOutlier:   true,
			OutlierType: outlierType,
		})
	}

	return outliers, nil
}

// screenOutliersRobust flags runs whose modified Z-score (median/MAD
// based, not mean/stddev) exceeds 3.5 — the standard robust threshold,
// insensitive to the very outliers it's trying to find.
func (c *runKPIControlChart) screenOutliersRobust(series []Metric) map[int]bool {
	outliers := make(map[int]bool)
	if len(series) < 3 {
		return outliers
	}

	values := make([]float64, len(series))
	for i, s := range series {
		values[i] = s.Value
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i] > sorted[j] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	median := medianOfSorted(sorted)

	absDeviations := make([]float64, len(values))
	for i, v := range values {
		absDeviations[i] = math.Abs(v - median)
	}
	sortedDev := make([]float64, len(absDeviations))
	copy(sortedDev, absDeviations)
	for i := 0; i < len(sortedDev); i++ {
		for j := i + 1; j < len(sortedDev); j++ {
			if sortedDev[i] > sortedDev[j] {
				sortedDev[i], sortedDev[j] = sortedDev[j], sortedDev[i]
			}
		}
	}
	mad := medianOfSorted(sortedDev)
	if mad == 0 {
		mad = 0.6745 // flat runs: fall back to a small constant denominator
	}

	const threshold = 3.5
	for i, v := range values {
		modifiedZ := 0.6745 * math.Abs(v-median) / mad
		if modifiedZ > threshold {
			outliers[i] = true
		}
	}
	return outliers
}

func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

// CalculateControlLimits computes the mean and the sigmaLevel-sigma upper
// and lower control limits for a run KPI series. The lower limit is
// floored at 0 since none of the tracked KPIs (recommendation count,
// unallocatable units) can go negative.
func (c *runKPIControlChart) CalculateControlLimits(series []Metric, sigmaLevel float64) (mean, ucl, lcl float64, err error) {
	if len(series) == 0 {
		return 0, 0, 0, fmt.Errorf("no run samples provided")
	}

	var sum float64
	for _, sample := range series {
		sum += sample.Value
	}
	mean = sum / float64(len(series))

	var variance float64
	for _, sample := range series {
		diff := sample.Value - mean
		variance += diff * diff
	}
	variance /= float64(len(series))
	stdDev := math.Sqrt(variance)

	ucl = mean + (sigmaLevel * stdDev)
	lcl = mean - (sigmaLevel * stdDev)
	if lcl < 0 {
		lcl = 0
	}

	return mean, ucl, lcl, nil
}

// detectTrends marks every point in a run of windowSize consecutive
// monotonic samples as an OutlierTypeTrend point, even when each
// individual sample sits inside the control limits — a steady drift
// across several nightly runs (e.g. allocation residual creeping up)
// is worth flagging before any single run trips the sigma bounds.
func (c *runKPIControlChart) detectTrends(points []ControlChartPoint, windowSize int) {
	if windowSize <= 0 || windowSize > len(points) {
		return
	}

	for i := 0; i <= len(points)-windowSize; i++ {
		increasing, decreasing := true, true
		for j := i; j < i+windowSize-1; j++ {
			if points[j].Value >= points[j+1].Value {
				increasing = false
			}
			if points[j].Value <= points[j+1].Value {
				decreasing = false
			}
		}
		if increasing || decreasing {
			for j := i; j < i+windowSize; j++ {
				if !points[j].IsOutlier {
					points[j].IsOutlier = true
					points[j].OutlierType = OutlierTypeTrend
				}
			}
		}
	}
}

// CalculateMovingAverage smooths a run KPI series with a centered moving
// average, useful for charting a trend line alongside the raw per-run
// values.
func CalculateMovingAverage(series []Metric, windowSize int) []float64 {
	if windowSize <= 0 || windowSize > len(series) {
		windowSize = len(series)
	}

	result := make([]float64, len(series))
	for i := 0; i < len(series); i++ {
		start := i - windowSize/2
		if start < 0 {
			start = 0
		}
		end := start + windowSize
		if end > len(series) {
			end = len(series)
			start = end - windowSize
			if start < 0 {
				start = 0
			}
		}

		var sum float64
		count := 0
		for j := start; j < end; j++ {
			sum += series[j].Value
			count++
		}
		result[i] = sum / float64(count)
	}

	return result
}

// CalculateStandardDeviation is the population standard deviation of a
// run KPI series's values.
func CalculateStandardDeviation(series []Metric) float64 {
	if len(series) == 0 {
		return 0
	}

	var sum float64
	for _, sample := range series {
		sum += sample.Value
	}
	mean := sum / float64(len(series))

	var variance float64
	for _, sample := range series {
		diff := sample.Value - mean
		variance += diff * diff
	}
	variance /= float64(len(series))

	return math.Sqrt(variance)
}
