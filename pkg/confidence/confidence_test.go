package confidence

import "testing"

func TestCalculate_StrongEvidenceYieldsHighConfidence(t *testing.T) {
	c := NewCalculator()
	b := c.Calculate(Evidence{
		ClusterSize:      60,
		ZMagnitude:       7.0,
		OpportunityRatio: 3.0,
		RuleCount:        3,
	})
	if b.Overall < 0.8 {
		t.Errorf("Overall = %v, want >= 0.8 for strong evidence", b.Overall)
	}
	if b.Overall > 1.0 {
		t.Errorf("Overall = %v, must be clamped to <= 1.0", b.Overall)
	}
}

func TestCalculate_WeakEvidenceYieldsLowConfidence(t *testing.T) {
	c := NewCalculator()
	b := c.Calculate(Evidence{
		ClusterSize:      1,
		ZMagnitude:       0,
		OpportunityRatio: 0,
		RuleCount:        1,
	})
	if b.Overall > 0.3 {
		t.Errorf("Overall = %v, want low confidence for minimal evidence", b.Overall)
	}
}

func TestCalculate_NeverNegativeOrAboveOne(t *testing.T) {
	c := NewCalculator()
	b := c.Calculate(Evidence{ClusterSize: 10000, ZMagnitude: 1000, OpportunityRatio: 1000, RuleCount: 10})
	if b.Overall < 0 || b.Overall > 1 {
		t.Errorf("Overall = %v, want within [0,1]", b.Overall)
	}
}

func TestRuleAgreementScore_MonotonicInRuleCount(t *testing.T) {
	c := NewCalculator()
	one := c.ruleAgreementScore(1)
	two := c.ruleAgreementScore(2)
	three := c.ruleAgreementScore(3)
	if !(one < two && two < three) {
		t.Errorf("ruleAgreementScore not monotonic: one=%v two=%v three=%v", one, two, three)
	}
}

func TestClusterSizeScore_ZeroSizeIsZero(t *testing.T) {
	c := NewCalculator()
	if got := c.clusterSizeScore(0); got != 0 {
		t.Errorf("clusterSizeScore(0) = %v, want 0", got)
	}
}
