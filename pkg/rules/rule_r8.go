package rules

import (
	"fmt"
	"math"

	"retail-assortment-optimizer/pkg/anomaly"
	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/confidence"
	"retail-assortment-optimizer/pkg/cost"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
)

// RunR8 is the Imbalanced Allocation rule: within a cluster, a store
// whose allocated quantity for a SPU is a Z-score outlier against its
// peers gets a new target: the cluster mean for an above-mean outlier,
// the mean plus one standard deviation for a below-mean one.
func RunR8(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error) {
	if len(ctx.Clusters) == 0 {
		return nil, &errs.RuleInputError{RuleID: string(domain.RuleImbalancedAllocation), Detail: "no validated clusters"}
	}
	rc := cfg.R8
	detector := anomaly.NewZScoreDetectorWithThreshold(rc.ZThreshold)
	calc := confidence.NewCalculator()
	econ := cost.NewEconomics()
	var out []domain.Recommendation

	for _, clusterID := range sortedClusterIDs(ctx) {
		cc := ctx.Clusters[clusterID]
		for _, spuID := range cc.SortedSPUIDs() {
			agg := cc.SPUs[spuID]
			qtys := agg.SortedQuantities(cc.StoreIDs)
			result := detector.DetectWithLabels(qtys, cc.StoreIDs)
			if !result.HasOutliers() {
				continue
			}

			for _, outlier := range result.Outliers {
				storeID := outlier.Label
				var target int
				if outlier.Direction == anomaly.DirectionAbove {
					target = int(math.Round(result.Mean))
				} else {
					target = int(math.Round(result.Mean + result.StdDev))
				}
				current := agg.Quantities[storeID]
				deltaQty := target - current
				if absInt(deltaQty) < rc.MinAdjustmentQuantity {
					continue
				}

				salesPerUnit := agg.SalesPerUnit(storeID)
				investment := econ.InvestmentDelta(deltaQty, agg.UnitCost)
				benefit := econ.ExpectedBenefit(deltaQty, salesPerUnit, 0.5)
				if math.Abs(investment) < rc.MinAdjustmentValue {
					continue
				}

				conf := calc.Calculate(confidence.Evidence{
					ClusterSize: len(cc.StoreIDs),
					ZMagnitude:  math.Abs(outlier.Deviation),
					RuleCount:   1,
				})

				out = append(out, domain.Recommendation{
					Fingerprint:      domain.Fingerprint{StoreID: storeID, SPUID: spuID},
					RuleIDs:          []domain.RuleID{domain.RuleImbalancedAllocation},
					Category:         agg.Category,
					Subcategory:      agg.Subcategory,
					CurrentQty:       current,
					TargetQty:        target,
					DeltaQty:         deltaQty,
					InvestmentDelta:  investment,
					ExpectedBenefit:  benefit,
					Confidence:       conf.Overall,
					ConfidenceDetail: conf,
					Rationale: fmt.Sprintf("SPU %s at %s is a %s outlier (Z=%.2f) against cluster %d mean %.1f",
						spuID, storeID, outlier.Direction, outlier.Deviation, clusterID, result.Mean),
				})
			}
		}
	}

	return topNPerStore(out, rc.MaxAdjustmentsPerStore), nil
}
