package rules

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/confidence"
	"retail-assortment-optimizer/pkg/cost"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/sellthrough"
)

// RunR11 is the Missed Sales rule: a SPU whose role implies weak
// sell-through is compared against its cluster's mean sales amount per
// store; a store trailing that mean by a wide margin is flagged for
// the missed revenue.
func RunR11(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error) {
	if len(ctx.Clusters) == 0 {
		return nil, &errs.RuleInputError{RuleID: string(domain.RuleMissedSales), Detail: "no validated clusters"}
	}
	rc := cfg.R11
	calc := confidence.NewCalculator()
	econ := cost.NewEconomics()
	var out []domain.Recommendation

	for _, clusterID := range sortedClusterIDs(ctx) {
		cc := ctx.Clusters[clusterID]
		for _, spuID := range cc.SortedSPUIDs() {
			agg := cc.SPUs[spuID]
			if sellthrough.RoleMidpoint(agg.Role) >= rc.MinSellThrough {
				continue
			}

			amts := agg.SortedAmounts(cc.StoreIDs)
			clusterMeanAmt := stat.Mean(amts, nil)
			if clusterMeanAmt <= 0 {
				continue
			}

			for _, storeID := range cc.StoreIDs {
				storeAmt := agg.Amounts[storeID]
				missed := econ.OpportunityGap(clusterMeanAmt, storeAmt)
				if missed <= 0 {
					continue
				}
				salesPerUnit := agg.SalesPerUnit(storeID)
				if salesPerUnit <= 0 {
					continue
				}
				deltaQty := int(missed / salesPerUnit)
				if deltaQty <= 0 {
					continue
				}
				current := agg.Quantities[storeID]
				investment := econ.InvestmentDelta(deltaQty, agg.UnitCost)

				conf := calc.Calculate(confidence.Evidence{
					ClusterSize:      len(cc.StoreIDs),
					OpportunityRatio: missed / clusterMeanAmt,
					RuleCount:        1,
				})

				out = append(out, domain.Recommendation{
					Fingerprint:      domain.Fingerprint{StoreID: storeID, SPUID: spuID},
					RuleIDs:          []domain.RuleID{domain.RuleMissedSales},
					Category:         agg.Category,
					Subcategory:      agg.Subcategory,
					CurrentQty:       current,
					TargetQty:        current + deltaQty,
					DeltaQty:         deltaQty,
					InvestmentDelta:  investment,
					ExpectedBenefit:  missed,
					Confidence:       conf.Overall,
					ConfidenceDetail: conf,
					Rationale: fmt.Sprintf("store %s trails cluster %d mean sales for SPU %s by %.2f",
						storeID, clusterID, spuID, missed),
				})
			}
		}
	}

	return out, nil
}
