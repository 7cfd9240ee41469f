package anomaly

import (
	"fmt"
	"sort"
)

// IQRDetector flags values outside [Q1 - k*IQR, Q3 + k*IQR]. Unlike
// ZScoreDetector it makes no normality assumption, which makes it a better
// fit for R9/R11's skewed subcategory-coverage and missed-sales
// distributions.
type IQRDetector struct {
	Multiplier float64
	MinSamples int
}

func NewIQRDetector() *IQRDetector {
	return &IQRDetector{Multiplier: 1.5, MinSamples: 4}
}

func (d *IQRDetector) Name() DetectionMethod { return MethodIQR }

func (d *IQRDetector) Detect(data []float64) *DetectionResult {
	return d.DetectWithLabels(data, nil)
}

func (d *IQRDetector) DetectWithLabels(data []float64, labels []string) *DetectionResult {
	result := &DetectionResult{
		Method:      MethodIQR,
		Threshold:   d.Multiplier,
		SampleCount: len(data),
	}
	if len(data) < d.MinSamples {
		return result
	}

	q1, median, q3 := calculateQuartiles(data)
	iqr := q3 - q1

	result.Q1, result.Q3, result.IQR, result.Median = q1, q3, iqr, median
	result.Mean = calculateMean(data)
	result.StdDev = calculateStdDev(data, result.Mean)
	result.MinValue, result.MaxValue = findMinMax(data)

	if iqr == 0 {
		return result
	}

	lower := q1 - d.Multiplier*iqr
	upper := q3 + d.Multiplier*iqr

	for i, v := range data {
		if v >= lower && v <= upper {
			continue
		}

		var deviation float64
		dir := DirectionAbove
		if v < lower {
			deviation = (q1 - v) / iqr
			dir = DirectionBelow
		} else {
			deviation = (v - q3) / iqr
		}

		var label string
		if labels != nil && i < len(labels) {
			label = labels[i]
		}

		result.Outliers = append(result.Outliers, Outlier{
			Label:         label,
			Index:         i,
			Direction:     dir,
			Severity:      severityFromIQR(deviation),
			DetectedBy:    MethodIQR,
			Value:         v,
			ExpectedLower: lower,
			ExpectedUpper: upper,
			Deviation:     deviation,
			Message: fmt.Sprintf("value %.2f outside IQR bounds [%.2f, %.2f] (Q1=%.2f, Q3=%.2f, IQR=%.2f)",
				v, lower, upper, q1, q3, iqr),
		})
	}

	return result
}

func calculateQuartiles(data []float64) (q1, median, q3 float64) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	n := len(sorted)
	median = percentile(sorted, 50)
	q1 = percentile(sorted, 25)
	q3 = percentile(sorted, 75)

	if n < 4 {
		q1 = sorted[0]
		q3 = sorted[n-1]
		if n >= 2 {
			median = (sorted[0] + sorted[n-1]) / 2
		} else {
			median = sorted[0]
		}
	}
	return q1, median, q3
}

// percentile linearly interpolates a percentile from sorted data.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	n := float64(len(sorted))
	rank := (pct / 100.0) * (n - 1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func severityFromIQR(deviation float64) Severity {
	abs := deviation
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 3.0:
		return SeverityCritical
	case abs >= 2.0:
		return SeverityHigh
	case abs >= 1.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
