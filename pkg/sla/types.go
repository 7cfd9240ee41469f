// Package sla applies statistical process control to the pipeline's own
// run history: a sequence of nightly runs' KPIs (allocation residual
// rate, rule-emission rate, recommendation count) is treated as a metric
// series and watched for 3-sigma outliers and trends, the same way the
// teacher's pkg/sla watched workload latency/error-rate/availability
// series. There is no live system to health-check before/after an
// optimization here (a batch pipeline run either completes or doesn't),
// so this package narrows to the control-chart half of the teacher's SLA
// package — see DESIGN.md for why health_checker.go/monitor.go's
// pre/post-optimization comparison was dropped rather than adapted.
package sla

import "time"

// Metric is one sample in a pipeline-run KPI series, grounded in the
// teacher's types.go Metric (Timestamp/Value/Labels unchanged).
type Metric struct {
	Timestamp time.Time
	Value     float64
	Labels    map[string]string
}

// RunKPI names one of the per-run statistics tracked across runs,
// replacing the teacher's workload-oriented SLAType.
type RunKPI string

const (
	// KPIAllocationResidualRate is unallocated units / total recommended
	// units for a run.
	KPIAllocationResidualRate RunKPI = "allocation_residual_rate"

	// KPIRecommendationCount is the total recommendations emitted.
	KPIRecommendationCount RunKPI = "recommendation_count"

	// KPIClusterQualityMean is the mean silhouette across a run's clusters.
	KPIClusterQualityMean RunKPI = "cluster_quality_mean"
)

// ControlChartPoint is one evaluated point on a control chart.
type ControlChartPoint struct {
	Timestamp   time.Time
	Value       float64
	Mean        float64
	UCL         float64 // Upper Control Limit
	LCL         float64 // Lower Control Limit
	IsOutlier   bool
	OutlierType OutlierType
}

// OutlierType classifies the type of outlier.
type OutlierType string

const (
	OutlierTypeNone  OutlierType = "none"
	OutlierTypeAbove OutlierType = "above_ucl"
	OutlierTypeBelow OutlierType = "below_lcl"
	OutlierTypeTrend OutlierType = "trend"
)

// ControlChartConfig configures control chart generation.
type ControlChartConfig struct {
	SigmaLevel           float64
	MinSamples           int
	EnableTrendDetection bool
	TrendWindowSize      int
}

// ControlChart defines the interface for control chart generation,
// unchanged from the teacher's pkg/sla/types.go.
type ControlChart interface {
	GenerateChart(metrics []Metric, config ControlChartConfig) ([]ControlChartPoint, error)
	DetectOutliers(metrics []Metric, sigmaLevel float64) ([]ControlChartPoint, error)
	CalculateControlLimits(metrics []Metric, sigmaLevel float64) (mean, ucl, lcl float64, err error)
}

// DefaultControlChartConfig mirrors the teacher's standard SLA-monitoring
// configuration: 3-sigma limits, a 5-run minimum before limits are
// trusted, trend detection over 3 consecutive runs.
func DefaultControlChartConfig() ControlChartConfig {
	return ControlChartConfig{
		SigmaLevel:           3.0,
		MinSamples:           5,
		EnableTrendDetection: true,
		TrendWindowSize:      3,
	}
}
