// Package metrics exports per-run pipeline instrumentation to Prometheus.
// Adapted from the teacher's pkg/metrics/prometheus.go PrometheusExporter:
// the same promauto-constructed CounterVec/GaugeVec/HistogramVec shape and
// namespace convention, repurposed from per-workload k8s reconciliation
// metrics to per-component pipeline-run metrics (one run processes many
// stores/clusters/rules, not one workload).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exposes pipeline-run metrics to Prometheus.
type PrometheusExporter struct {
	// Component invocation metrics (Feature Assembly, Clustering,
	// Profiler, Rule Engine, Consolidator, Allocator).
	ComponentRuns     *prometheus.CounterVec
	ComponentDuration *prometheus.HistogramVec
	ComponentErrors   *prometheus.CounterVec

	// Clustering quality metrics.
	ClusterQualityScore      *prometheus.GaugeVec
	ClustersFormed           *prometheus.GaugeVec
	MerchandisingCoherence   *prometheus.GaugeVec

	// Rule engine metrics.
	RuleEvaluations      *prometheus.CounterVec
	RecommendationsEmitted *prometheus.CounterVec
	RuleSkips            *prometheus.CounterVec

	// Consolidation / allocation metrics.
	RecommendationsDeduped *prometheus.CounterVec
	SanityCapsApplied      *prometheus.CounterVec
	AllocationResidual     *prometheus.GaugeVec
	InvestmentTotal        *prometheus.GaugeVec

	// Policy metrics (mirrors the teacher's policy instrumentation,
	// pkg/policy now gating Recommendations instead of workload scaling).
	PolicyEvaluations    *prometheus.CounterVec
	PolicyBlockedChanges *prometheus.CounterVec

	// Scheduler / run-lifecycle metrics.
	RunsTotal        *prometheus.CounterVec
	RunsSkipped      *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// NewPrometheusExporter registers and returns a PrometheusExporter under
// the given namespace, mirroring the teacher's single-call construction
// pattern (one promauto.New* call per metric, grouped by concern).
func NewPrometheusExporter(namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		ComponentRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "component_runs_total",
				Help:      "Total number of pipeline component invocations by result",
			},
			[]string{"component", "result"},
		),
		ComponentDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "component_duration_seconds",
				Help:      "Duration of a pipeline component invocation in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component"},
		),
		ComponentErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "component_errors_total",
				Help:      "Total number of pipeline component errors by type",
			},
			[]string{"component", "error_type"},
		),

		ClusterQualityScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cluster_quality_score",
				Help:      "Silhouette score of the most recent clustering run, per cluster",
			},
			[]string{"run", "cluster_id"},
		),
		ClustersFormed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "clusters_formed",
				Help:      "Number of clusters formed in the most recent run",
			},
			[]string{"run"},
		),
		MerchandisingCoherence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "merchandising_coherence_score",
				Help:      "Style/size-tier merchandising coherence score, per cluster",
			},
			[]string{"run", "cluster_id"},
		),

		RuleEvaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_evaluations_total",
				Help:      "Total number of rule evaluations by rule id and result",
			},
			[]string{"rule_id", "result"},
		),
		RecommendationsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_emitted_total",
				Help:      "Total number of recommendations emitted by rule id",
			},
			[]string{"rule_id"},
		),
		RuleSkips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_skips_total",
				Help:      "Total number of rule skips due to RuleInputError, by rule id",
			},
			[]string{"rule_id"},
		),

		RecommendationsDeduped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_deduped_total",
				Help:      "Total number of duplicate recommendations collapsed by fingerprint",
			},
			[]string{"run"},
		),
		SanityCapsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sanity_caps_applied_total",
				Help:      "Total number of recommendations clamped by a universal sanity constraint",
			},
			[]string{"constraint"},
		),
		AllocationResidual: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "allocation_residual_units",
				Help:      "Unallocated units remaining after the group-to-store allocator, per run",
			},
			[]string{"run"},
		),
		InvestmentTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "investment_total",
				Help:      "Total projected investment delta across all recommendations, per run",
			},
			[]string{"run"},
		),

		PolicyEvaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_evaluations_total",
				Help:      "Total number of policy evaluations by result",
			},
			[]string{"policy_name", "result"},
		),
		PolicyBlockedChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_blocked_changes_total",
				Help:      "Total number of recommendations blocked by a policy",
			},
			[]string{"policy_name"},
		),

		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of scheduled pipeline runs by result",
			},
			[]string{"schedule", "result"},
		),
		RunsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_skipped_total",
				Help:      "Total number of scheduled runs skipped, by reason",
			},
			[]string{"schedule", "reason"},
		),
		CircuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"schedule"},
		),
	}
}

// RecordComponentRun records one component invocation's outcome and
// duration.
func (e *PrometheusExporter) RecordComponentRun(component, result string, seconds float64) {
	e.ComponentRuns.WithLabelValues(component, result).Inc()
	e.ComponentDuration.WithLabelValues(component).Observe(seconds)
}

// RecordComponentError records a component error by type.
func (e *PrometheusExporter) RecordComponentError(component, errorType string) {
	e.ComponentErrors.WithLabelValues(component, errorType).Inc()
}

// RecordClusterQuality records one cluster's silhouette score for a run.
func (e *PrometheusExporter) RecordClusterQuality(run, clusterID string, silhouette float64) {
	e.ClusterQualityScore.WithLabelValues(run, clusterID).Set(silhouette)
}

// RecordClustersFormed records the cluster count for a run.
func (e *PrometheusExporter) RecordClustersFormed(run string, count int) {
	e.ClustersFormed.WithLabelValues(run).Set(float64(count))
}

// RecordMerchandisingCoherence records one cluster's coherence score.
func (e *PrometheusExporter) RecordMerchandisingCoherence(run, clusterID string, score float64) {
	e.MerchandisingCoherence.WithLabelValues(run, clusterID).Set(score)
}

// RecordRuleEvaluation records one rule's evaluation outcome.
func (e *PrometheusExporter) RecordRuleEvaluation(ruleID, result string) {
	e.RuleEvaluations.WithLabelValues(ruleID, result).Inc()
}

// RecordRecommendationsEmitted records recommendations emitted by a rule.
func (e *PrometheusExporter) RecordRecommendationsEmitted(ruleID string, count int) {
	e.RecommendationsEmitted.WithLabelValues(ruleID).Add(float64(count))
}

// RecordRuleSkip records a rule skipped due to a RuleInputError.
func (e *PrometheusExporter) RecordRuleSkip(ruleID string) {
	e.RuleSkips.WithLabelValues(ruleID).Inc()
}

// RecordRecommendationsDeduped records duplicates collapsed in a run.
func (e *PrometheusExporter) RecordRecommendationsDeduped(run string, count int) {
	e.RecommendationsDeduped.WithLabelValues(run).Add(float64(count))
}

// RecordSanityCapApplied records a universal sanity constraint firing.
func (e *PrometheusExporter) RecordSanityCapApplied(constraint string) {
	e.SanityCapsApplied.WithLabelValues(constraint).Inc()
}

// RecordAllocationResidual records the allocator's unallocated-unit
// residual for a run.
func (e *PrometheusExporter) RecordAllocationResidual(run string, units int) {
	e.AllocationResidual.WithLabelValues(run).Set(float64(units))
}

// RecordInvestmentTotal records the total projected investment for a run.
func (e *PrometheusExporter) RecordInvestmentTotal(run string, total float64) {
	e.InvestmentTotal.WithLabelValues(run).Set(total)
}

// RecordPolicyEvaluation records a policy evaluation outcome.
func (e *PrometheusExporter) RecordPolicyEvaluation(policyName, result string) {
	e.PolicyEvaluations.WithLabelValues(policyName, result).Inc()
}

// RecordPolicyBlockedChange records a recommendation blocked by a policy.
func (e *PrometheusExporter) RecordPolicyBlockedChange(policyName string) {
	e.PolicyBlockedChanges.WithLabelValues(policyName).Inc()
}

// RecordRun records a scheduled pipeline run's outcome.
func (e *PrometheusExporter) RecordRun(schedule, result string) {
	e.RunsTotal.WithLabelValues(schedule, result).Inc()
}

// RecordRunSkipped records a scheduled run skipped, with its reason
// (e.g. "blackout_window", "circuit_open").
func (e *PrometheusExporter) RecordRunSkipped(schedule, reason string) {
	e.RunsSkipped.WithLabelValues(schedule, reason).Inc()
}

// RecordCircuitBreakerState records the breaker's current state as a
// gauge (0=closed, 1=half-open, 2=open). scheduler.CircuitState is a
// string type; this method takes the numeric code, not that type.
func (e *PrometheusExporter) RecordCircuitBreakerState(schedule string, state int) {
	e.CircuitBreakerState.WithLabelValues(schedule).Set(float64(state))
}
