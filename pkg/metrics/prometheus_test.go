package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordComponentRun(t *testing.T) {
	e := NewPrometheusExporter("test_run")

	e.RecordComponentRun("clustering", "success", 1.5)
	count := testutil.ToFloat64(e.ComponentRuns.WithLabelValues("clustering", "success"))
	if count != 1.0 {
		t.Errorf("expected count 1.0, got %f", count)
	}

	e.RecordComponentRun("clustering", "success", 2.0)
	count = testutil.ToFloat64(e.ComponentRuns.WithLabelValues("clustering", "success"))
	if count != 2.0 {
		t.Errorf("expected count 2.0, got %f", count)
	}
}

func TestRecordComponentError(t *testing.T) {
	e := NewPrometheusExporter("test_error")

	e.RecordComponentError("rules", "RuleInputError")
	count := testutil.ToFloat64(e.ComponentErrors.WithLabelValues("rules", "RuleInputError"))
	if count != 1.0 {
		t.Errorf("expected count 1.0, got %f", count)
	}
}

func TestRecordClusterQuality(t *testing.T) {
	e := NewPrometheusExporter("test_quality")

	e.RecordClusterQuality("run-1", "3", 0.72)
	got := testutil.ToFloat64(e.ClusterQualityScore.WithLabelValues("run-1", "3"))
	if got != 0.72 {
		t.Errorf("expected 0.72, got %f", got)
	}
}

func TestRecordClustersFormed(t *testing.T) {
	e := NewPrometheusExporter("test_clusters")

	e.RecordClustersFormed("run-1", 8)
	got := testutil.ToFloat64(e.ClustersFormed.WithLabelValues("run-1"))
	if got != 8.0 {
		t.Errorf("expected 8, got %f", got)
	}
}

func TestRecordRuleEvaluationAndEmission(t *testing.T) {
	e := NewPrometheusExporter("test_rules")

	e.RecordRuleEvaluation("R8", "matched")
	count := testutil.ToFloat64(e.RuleEvaluations.WithLabelValues("R8", "matched"))
	if count != 1.0 {
		t.Errorf("expected 1.0, got %f", count)
	}

	e.RecordRecommendationsEmitted("R8", 5)
	emitted := testutil.ToFloat64(e.RecommendationsEmitted.WithLabelValues("R8"))
	if emitted != 5.0 {
		t.Errorf("expected 5.0, got %f", emitted)
	}

	e.RecordRuleSkip("R10")
	skips := testutil.ToFloat64(e.RuleSkips.WithLabelValues("R10"))
	if skips != 1.0 {
		t.Errorf("expected 1.0, got %f", skips)
	}
}

func TestRecordAllocationAndInvestment(t *testing.T) {
	e := NewPrometheusExporter("test_alloc")

	e.RecordAllocationResidual("run-1", 12)
	residual := testutil.ToFloat64(e.AllocationResidual.WithLabelValues("run-1"))
	if residual != 12.0 {
		t.Errorf("expected 12.0, got %f", residual)
	}

	e.RecordInvestmentTotal("run-1", 18250.50)
	total := testutil.ToFloat64(e.InvestmentTotal.WithLabelValues("run-1"))
	if total != 18250.50 {
		t.Errorf("expected 18250.50, got %f", total)
	}
}

func TestRecordPolicyMetrics(t *testing.T) {
	e := NewPrometheusExporter("test_policy")

	e.RecordPolicyEvaluation("small-store-cap", "matched")
	count := testutil.ToFloat64(e.PolicyEvaluations.WithLabelValues("small-store-cap", "matched"))
	if count != 1.0 {
		t.Errorf("expected 1.0, got %f", count)
	}

	e.RecordPolicyBlockedChange("small-store-cap")
	blocked := testutil.ToFloat64(e.PolicyBlockedChanges.WithLabelValues("small-store-cap"))
	if blocked != 1.0 {
		t.Errorf("expected 1.0, got %f", blocked)
	}
}

func TestRecordRunLifecycle(t *testing.T) {
	e := NewPrometheusExporter("test_lifecycle")

	e.RecordRun("nightly", "success")
	count := testutil.ToFloat64(e.RunsTotal.WithLabelValues("nightly", "success"))
	if count != 1.0 {
		t.Errorf("expected 1.0, got %f", count)
	}

	e.RecordRunSkipped("nightly", "blackout_window")
	skipped := testutil.ToFloat64(e.RunsSkipped.WithLabelValues("nightly", "blackout_window"))
	if skipped != 1.0 {
		t.Errorf("expected 1.0, got %f", skipped)
	}

	e.RecordCircuitBreakerState("nightly", 2)
	state := testutil.ToFloat64(e.CircuitBreakerState.WithLabelValues("nightly"))
	if state != 2.0 {
		t.Errorf("expected 2.0, got %f", state)
	}
}
