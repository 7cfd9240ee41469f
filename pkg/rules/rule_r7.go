package rules

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/confidence"
	"retail-assortment-optimizer/pkg/cost"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/sellthrough"
)

// RunR7 is the Missing SPU / Subcategory rule: for each cluster, find
// SPUs adopted by >= adoption_threshold of members with total sales >=
// min_sales_threshold, then flag member stores that don't stock one.
func RunR7(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error) {
	if len(ctx.Clusters) == 0 {
		return nil, &errs.RuleInputError{RuleID: string(domain.RuleMissingSPU), Detail: "no validated clusters"}
	}
	rc := cfg.R7
	calc := confidence.NewCalculator()
	econ := cost.NewEconomics()
	var out []domain.Recommendation

	for _, clusterID := range sortedClusterIDs(ctx) {
		cc := ctx.Clusters[clusterID]
		if len(cc.StoreIDs) < rc.MinClusterSize {
			continue
		}

		for _, spuID := range cc.SortedSPUIDs() {
			agg := cc.SPUs[spuID]
			fraction := agg.AdoptionFraction(len(cc.StoreIDs))
			if fraction < rc.AdoptionThreshold || agg.TotalSalesAmt < rc.MinSalesThreshold {
				continue
			}

			adoptingQty := make([]float64, 0, len(cc.StoreIDs))
			for _, storeID := range cc.StoreIDs {
				if q := agg.Quantities[storeID]; q > 0 {
					adoptingQty = append(adoptingQty, float64(q))
				}
			}
			if len(adoptingQty) == 0 {
				continue
			}
			recommendedQty := int(math.Round(stat.Mean(adoptingQty, nil)))
			if recommendedQty <= 0 {
				continue
			}

			for _, storeID := range cc.StoreIDs {
				if agg.Quantities[storeID] > 0 {
					continue // already stocked
				}
				salesPerUnit := agg.SalesPerUnit(storeID)
				if salesPerUnit <= 0 {
					continue
				}
				expectedST := sellthrough.RoleMidpoint(agg.Role)
				benefit := econ.ExpectedBenefit(recommendedQty, salesPerUnit, expectedST)
				if benefit < rc.MinTotalOpportunity {
					continue
				}
				investment := econ.InvestmentDelta(recommendedQty, agg.UnitCost)
				conf := calc.Calculate(confidence.Evidence{
					ClusterSize:      len(cc.StoreIDs),
					OpportunityRatio: benefit / rc.MinTotalOpportunity,
					RuleCount:        1,
				})

				out = append(out, domain.Recommendation{
					Fingerprint:      domain.Fingerprint{StoreID: storeID, SPUID: spuID},
					RuleIDs:          []domain.RuleID{domain.RuleMissingSPU},
					Category:         agg.Category,
					Subcategory:      agg.Subcategory,
					CurrentQty:       0,
					TargetQty:        recommendedQty,
					DeltaQty:         recommendedQty,
					InvestmentDelta:  investment,
					ExpectedBenefit:  benefit,
					Confidence:       conf.Overall,
					ConfidenceDetail: conf,
					Rationale:        fmt.Sprintf("SPU %s stocked by %.0f%% of cluster %d peers, not yet at %s", spuID, fraction*100, clusterID, storeID),
				})
			}
		}
	}

	return topNPerStore(out, rc.MaxMissingSPUsPerStore), nil
}
