package anomaly

import (
	"fmt"
	"math"
)

// ZScoreDetector flags values more than Threshold standard deviations from
// the peer-set mean: Z = (x - mean) / stddev. Used by R8 (per-SPU
// per-store quantity Z-score) and R12 (per-cluster-SPU sales Z-score).
type ZScoreDetector struct {
	Threshold  float64
	MinSamples int
}

// NewZScoreDetector returns a detector with the teacher's original default
// threshold of 3.0. Rules R8/R12 override this via their own config.
func NewZScoreDetector() *ZScoreDetector {
	return &ZScoreDetector{Threshold: 3.0, MinSamples: 2}
}

// NewZScoreDetectorWithThreshold builds a detector at a specific threshold,
// e.g. R8's default of 6.0 (spec.md §4.4 — the original 2.0 threshold is
// documented as having created excessive flags).
func NewZScoreDetectorWithThreshold(threshold float64) *ZScoreDetector {
	return &ZScoreDetector{Threshold: threshold, MinSamples: 2}
}

func (d *ZScoreDetector) Name() DetectionMethod { return MethodZScore }

func (d *ZScoreDetector) Detect(data []float64) *DetectionResult {
	return d.DetectWithLabels(data, nil)
}

// DetectWithLabels scans data for |Z| > Threshold. Per spec.md §8, the
// comparison is strict: a value exactly at the threshold is not flagged.
func (d *ZScoreDetector) DetectWithLabels(data []float64, labels []string) *DetectionResult {
	result := &DetectionResult{
		Method:      MethodZScore,
		Threshold:   d.Threshold,
		SampleCount: len(data),
	}
	if len(data) < d.MinSamples {
		return result
	}

	mean := calculateMean(data)
	stdDev := calculateStdDev(data, mean)
	result.Mean = mean
	result.StdDev = stdDev
	result.MinValue, result.MaxValue = findMinMax(data)

	if stdDev == 0 {
		return result
	}

	lower := mean - d.Threshold*stdDev
	upper := mean + d.Threshold*stdDev

	for i, v := range data {
		z := (v - mean) / stdDev
		if math.Abs(z) <= d.Threshold {
			continue
		}

		dir := DirectionAbove
		if v < mean {
			dir = DirectionBelow
		}
		var label string
		if labels != nil && i < len(labels) {
			label = labels[i]
		}

		result.Outliers = append(result.Outliers, Outlier{
			Label:         label,
			Index:         i,
			Direction:     dir,
			Severity:      determineSeverity(z),
			DetectedBy:    MethodZScore,
			Value:         v,
			ExpectedLower: lower,
			ExpectedUpper: upper,
			Deviation:     z,
			Message: fmt.Sprintf("Z-score %.2f exceeds threshold %.2f (value=%.2f, mean=%.2f, stddev=%.2f)",
				z, d.Threshold, v, mean, stdDev),
		})
	}

	return result
}

func calculateMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// calculateStdDev computes the population standard deviation (divide by
// n, not n-1). spec.md Scenario 5 anchors R8's Z-score arithmetic on the
// population form: quantities {10,10,10,10,100} give mean=28, std=36
// exactly (sample stddev would give ~40.2 instead).
func calculateStdDev(data []float64, mean float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range data {
		diff := v - mean
		sumSquares += diff * diff
	}
	variance := sumSquares / float64(len(data))
	return math.Sqrt(variance)
}

func findMinMax(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	min, max = data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
