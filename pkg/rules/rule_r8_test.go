package rules

import (
	"testing"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
)

// TestRunR8DoesNotFlagModerateOutlierAtDefaultThreshold anchors R8 on the
// scenario spec.md uses to justify raising the Z threshold from 2.0 to
// 6.0: quantities {10,10,10,10,100} give population mean=28, stddev=36,
// so the outlier's Z is exactly 2.0 — well under the 6.0 default.
func TestRunR8DoesNotFlagModerateOutlierAtDefaultThreshold(t *testing.T) {
	memberIDs := []string{"S1", "S2", "S3", "S4", "S5"}
	clusters := []domain.Cluster{fixtureCluster(memberIDs)}
	stores := fixtureStores()
	spus := fixtureSPUs()

	sales := []domain.SalesFact{
		{StoreID: "S1", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S2", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S3", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S4", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S5", SPUID: "SPU-A", SalesQty: 100, SalesAmt: 10000},
	}
	ctx, err := NewRuleContext(clusters, stores, spus, sales)
	if err != nil {
		t.Fatalf("NewRuleContext: %v", err)
	}

	cfg := config.RuleConfig{R8: config.RuleR8Config{
		ZThreshold:             6.0,
		MaxAdjustmentsPerStore: 5,
		MinAdjustmentQuantity:  1,
		MinAdjustmentValue:     1,
	}}
	recs, err := RunR8(ctx, cfg)
	if err != nil {
		t.Fatalf("RunR8: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no R8 recommendations at Z=2.0 against threshold 6.0, got %d", len(recs))
	}
}

func TestRunR8FlagsOutlierAtLowerThreshold(t *testing.T) {
	memberIDs := []string{"S1", "S2", "S3", "S4", "S5"}
	clusters := []domain.Cluster{fixtureCluster(memberIDs)}
	stores := fixtureStores()
	spus := fixtureSPUs()

	sales := []domain.SalesFact{
		{StoreID: "S1", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S2", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S3", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S4", SPUID: "SPU-A", SalesQty: 10, SalesAmt: 1000},
		{StoreID: "S5", SPUID: "SPU-A", SalesQty: 100, SalesAmt: 10000},
	}
	ctx, err := NewRuleContext(clusters, stores, spus, sales)
	if err != nil {
		t.Fatalf("NewRuleContext: %v", err)
	}

	cfg := config.RuleConfig{R8: config.RuleR8Config{
		ZThreshold:             1.5,
		MaxAdjustmentsPerStore: 5,
		MinAdjustmentQuantity:  1,
		MinAdjustmentValue:     1,
	}}
	recs, err := RunR8(ctx, cfg)
	if err != nil {
		t.Fatalf("RunR8: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected exactly one R8 recommendation at threshold 1.5, got %d", len(recs))
	}
	if recs[0].Fingerprint.StoreID != "S5" {
		t.Errorf("expected the outlier at S5, got %s", recs[0].Fingerprint.StoreID)
	}
	if recs[0].TargetQty != 28 {
		t.Errorf("TargetQty = %d, want 28 (cluster mean)", recs[0].TargetQty)
	}
}
