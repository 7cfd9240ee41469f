package rules

import (
	"testing"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
)

func TestRunR11FlagsWeakSellThroughLaggard(t *testing.T) {
	memberIDs := []string{"S1", "S2", "S3"}
	clusters := []domain.Cluster{fixtureCluster(memberIDs)}
	stores := fixtureStores()[:3]
	spus := []domain.SPU{
		{SPUID: "SPU-C", Category: "Apparel", Subcategory: "Tees", Role: domain.RoleClearance, UnitCost: 5},
	}

	sales := []domain.SalesFact{
		{StoreID: "S1", SPUID: "SPU-C", SalesQty: 20, SalesAmt: 2000},
		{StoreID: "S2", SPUID: "SPU-C", SalesQty: 20, SalesAmt: 2000},
		{StoreID: "S3", SPUID: "SPU-C", SalesQty: 2, SalesAmt: 200}, // far below cluster mean
	}
	ctx, err := NewRuleContext(clusters, stores, spus, sales)
	if err != nil {
		t.Fatalf("NewRuleContext: %v", err)
	}

	cfg := config.RuleConfig{R11: config.RuleR11Config{MinSellThrough: 0.5}} // Clearance midpoint 0.10 < 0.5
	recs, err := RunR11(ctx, cfg)
	if err != nil {
		t.Fatalf("RunR11: %v", err)
	}
	var found bool
	for _, r := range recs {
		if r.Fingerprint.StoreID == "S3" {
			found = true
			if r.ExpectedBenefit <= 0 {
				t.Errorf("expected a positive expected benefit, got %.2f", r.ExpectedBenefit)
			}
		}
	}
	if !found {
		t.Fatal("expected S3 to be flagged for missed sales")
	}
}

func TestRunR11SkipsRolesAboveFloor(t *testing.T) {
	memberIDs := []string{"S1", "S2"}
	clusters := []domain.Cluster{fixtureCluster(memberIDs)}
	stores := fixtureStores()[:2]
	spus := []domain.SPU{
		{SPUID: "SPU-A", Category: "Apparel", Subcategory: "Jackets", Role: domain.RoleCore, UnitCost: 20},
	}
	sales := []domain.SalesFact{
		{StoreID: "S1", SPUID: "SPU-A", SalesQty: 20, SalesAmt: 2000},
		{StoreID: "S2", SPUID: "SPU-A", SalesQty: 1, SalesAmt: 100},
	}
	ctx, err := NewRuleContext(clusters, stores, spus, sales)
	if err != nil {
		t.Fatalf("NewRuleContext: %v", err)
	}
	cfg := config.RuleConfig{R11: config.RuleR11Config{MinSellThrough: 0.15}} // Core midpoint 0.90 clears the floor
	recs, err := RunR11(ctx, cfg)
	if err != nil {
		t.Fatalf("RunR11: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations for a Core SPU above the sell-through floor, got %d", len(recs))
	}
}
