package consolidate

import (
	"testing"
	"time"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/scheduler"
)

func roleOf(spuID string) (domain.SPURole, bool) {
	return domain.RoleCore, true
}

func defaultCfgs() (config.SanityConfig, config.SellThroughConfig) {
	return config.SanityConfig{
			MaxTotalSPUChangesPerStore:      5,
			MaxTotalQuantityChangesPerStore: 50,
			MaxInvestmentPerStore:           8000,
		}, config.SellThroughConfig{
			MinPredictedSellThrough: 0.50,
			MinImprovement:          0.05,
			MaxRisk:                 0.80,
		}
}

// TestConsolidateScenario6DedupKeepsHigherScoringWinner mirrors spec.md
// §8 Scenario 6: two recommendations for the same (store, spu) from R7
// (confidence 0.8, delta +3) and R12 (confidence 0.6, delta +5) collapse
// into one row carrying R7's delta, with both rule_ids unioned in.
func TestConsolidateScenario6DedupKeepsHigherScoringWinner(t *testing.T) {
	sanity, st := defaultCfgs()
	c := New(sanity, st, roleOf)

	recs := []domain.Recommendation{
		{
			Fingerprint: domain.Fingerprint{StoreID: "S1", SPUID: "SPU-X"},
			RuleIDs:     []domain.RuleID{domain.RuleMissingSPU}, // R7
			DeltaQty:    3, ExpectedBenefit: 100, Confidence: 0.8,
		},
		{
			Fingerprint: domain.Fingerprint{StoreID: "S1", SPUID: "SPU-X"},
			RuleIDs:     []domain.RuleID{domain.RuleSalesPerformanceGap}, // R12
			DeltaQty:    5, ExpectedBenefit: 100, Confidence: 0.6,
		},
	}

	res := c.Run(recs, nil, time.Now())
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected exactly 1 surviving row, got %d", len(res.Recommendations))
	}
	winner := res.Recommendations[0]
	if winner.DeltaQty != 3 {
		t.Errorf("DeltaQty = %d, want 3 (R7's value, the higher-scoring row)", winner.DeltaQty)
	}
	if len(winner.RuleIDs) != 2 {
		t.Errorf("expected both rule_ids unioned into the survivor, got %v", winner.RuleIDs)
	}
	if res.DedupedCount != 1 {
		t.Errorf("DedupedCount = %d, want 1", res.DedupedCount)
	}
}

func TestConsolidateDistinctFingerprintsBothSurvive(t *testing.T) {
	sanity, st := defaultCfgs()
	c := New(sanity, st, roleOf)
	recs := []domain.Recommendation{
		{Fingerprint: domain.Fingerprint{StoreID: "S1", SPUID: "SPU-X"}, RuleIDs: []domain.RuleID{domain.RuleMissingSPU}, Confidence: 0.5, ExpectedBenefit: 50},
		{Fingerprint: domain.Fingerprint{StoreID: "S2", SPUID: "SPU-X"}, RuleIDs: []domain.RuleID{domain.RuleMissingSPU}, Confidence: 0.5, ExpectedBenefit: 50},
	}
	res := c.Run(recs, nil, time.Now())
	if len(res.Recommendations) != 2 {
		t.Fatalf("expected both rows to survive, got %d", len(res.Recommendations))
	}
}

func TestConsolidateBlackoutWindowRejectsSpecificStore(t *testing.T) {
	sanity, st := defaultCfgs()
	c := New(sanity, st, roleOf)
	recs := []domain.Recommendation{
		{Fingerprint: domain.Fingerprint{StoreID: "S1", SPUID: "SPU-X"}, RuleIDs: []domain.RuleID{domain.RuleMissingSPU}, Confidence: 0.5, ExpectedBenefit: 50},
	}
	blackouts := map[string][]scheduler.BlackoutWindow{
		"S1": {{Name: "renovation", Schedule: "* * * * *", Duration: "1m", Timezone: "UTC"}},
	}
	res := c.Run(recs, blackouts, time.Now())
	if len(res.Recommendations) != 0 {
		t.Fatalf("expected the blacked-out store's row rejected, got %d survivors", len(res.Recommendations))
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Constraint != "blackout_window" {
		t.Fatalf("expected a blackout_window rejection, got %+v", res.Rejected)
	}
}

func TestConsolidateWildcardBlackoutAppliesToEveryStore(t *testing.T) {
	sanity, st := defaultCfgs()
	c := New(sanity, st, roleOf)
	recs := []domain.Recommendation{
		{Fingerprint: domain.Fingerprint{StoreID: "S1", SPUID: "SPU-X"}, RuleIDs: []domain.RuleID{domain.RuleMissingSPU}, Confidence: 0.5, ExpectedBenefit: 50},
		{Fingerprint: domain.Fingerprint{StoreID: "S2", SPUID: "SPU-X"}, RuleIDs: []domain.RuleID{domain.RuleMissingSPU}, Confidence: 0.5, ExpectedBenefit: 50},
	}
	blackouts := map[string][]scheduler.BlackoutWindow{
		"*": {{Name: "freeze", Schedule: "* * * * *", Duration: "1m", Timezone: "UTC"}},
	}
	res := c.Run(recs, blackouts, time.Now())
	if len(res.Recommendations) != 0 {
		t.Fatalf("expected every store rejected under the wildcard blackout, got %d survivors", len(res.Recommendations))
	}
	if len(res.Rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %d", len(res.Rejected))
	}
}

func TestConsolidateAppliesSanityCapsAfterDedup(t *testing.T) {
	sanity, st := defaultCfgs()
	sanity.MaxInvestmentPerStore = 10 // deliberately unreachable
	c := New(sanity, st, roleOf)
	recs := []domain.Recommendation{
		{Fingerprint: domain.Fingerprint{StoreID: "S1", SPUID: "SPU-X"}, RuleIDs: []domain.RuleID{domain.RuleMissingSPU}, Confidence: 0.9, ExpectedBenefit: 9000, InvestmentDelta: 9000},
	}
	res := c.Run(recs, nil, time.Now())
	if len(res.Recommendations) != 0 {
		t.Fatalf("expected the investment cap to reject the row, got %d survivors", len(res.Recommendations))
	}
}
