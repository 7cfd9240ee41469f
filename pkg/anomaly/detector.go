// Package anomaly detects statistical outliers in a set of peer values —
// store quantities or sales figures compared against their cluster —
// adapted from the teacher's CPU/memory time-series anomaly detectors
// (pkg/anomaly/{detector,zscore,iqr}.go). The detection math (Z-score,
// IQR) is unchanged; what it is detecting moved from "this pod's CPU usage
// over time" to "this store's quantity among its cluster peers," so the
// per-point timestamp is replaced with a per-point label (a store ID) and
// the CPU/memory-specific AnomalyType is replaced with a plain
// above/below Direction. The Rule Engine (pkg/rules) uses this package
// directly for R8 and R12's Z-score gates.
package anomaly

import "fmt"

// Direction is which side of the expected range a point fell on.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Severity is the magnitude bucket of an outlier.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DetectionMethod names which statistical method flagged a point.
type DetectionMethod string

const (
	MethodZScore DetectionMethod = "z_score"
	MethodIQR    DetectionMethod = "iqr"
)

// Outlier is one flagged data point.
type Outlier struct {
	Label         string // caller-supplied identifier, e.g. a store ID
	Index         int
	Direction     Direction
	Severity      Severity
	DetectedBy    DetectionMethod
	Value         float64
	ExpectedLower float64
	ExpectedUpper float64
	Deviation     float64 // Z-score or IQR-multiple, signed
	Message       string
}

// DetectionResult is the outcome of running a Detector over one peer set.
type DetectionResult struct {
	Outliers []Outlier

	Mean     float64
	StdDev   float64
	Median   float64
	Q1       float64
	Q3       float64
	IQR      float64
	MinValue float64
	MaxValue float64

	Method      DetectionMethod
	Threshold   float64
	SampleCount int
}

// HasOutliers reports whether any points were flagged.
func (r *DetectionResult) HasOutliers() bool { return len(r.Outliers) > 0 }

// OutlierCount returns the number of flagged points.
func (r *DetectionResult) OutlierCount() int { return len(r.Outliers) }

// Summary returns a human-readable one-line description.
func (r *DetectionResult) Summary() string {
	if !r.HasOutliers() {
		return fmt.Sprintf("no outliers (method=%s, samples=%d)", r.Method, r.SampleCount)
	}
	return fmt.Sprintf("%d outliers using %s (samples=%d)", r.OutlierCount(), r.Method, r.SampleCount)
}

// Detector is the common interface both statistical methods implement.
type Detector interface {
	Detect(data []float64) *DetectionResult
	DetectWithLabels(data []float64, labels []string) *DetectionResult
	Name() DetectionMethod
}

// determineSeverity buckets a Z-score magnitude into a Severity.
func determineSeverity(deviation float64) Severity {
	abs := deviation
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 5.0:
		return SeverityCritical
	case abs >= 4.0:
		return SeverityHigh
	case abs >= 3.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
