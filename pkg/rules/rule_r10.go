package rules

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/confidence"
	"retail-assortment-optimizer/pkg/cost"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
)

// RunR10 is the Smart Overcapacity rule: a store already near the top
// of its cluster's sales distribution for a SPU, with capacity
// headroom to spare, is nudged to carry strategically more of it.
// spec.md §4.4 names three named threshold profiles (strict/standard/
// lenient); RunR10 applies whichever RuleR10Config cfg.R10 carries —
// config.ResolveR10Profile is how a caller selects one before building
// the RuleConfig passed to the Registry.
func RunR10(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error) {
	if len(ctx.Clusters) == 0 {
		return nil, &errs.RuleInputError{RuleID: string(domain.RuleSmartOvercapacity), Detail: "no validated clusters"}
	}
	rc := cfg.R10
	calc := confidence.NewCalculator()
	econ := cost.NewEconomics()
	var out []domain.Recommendation

	for _, clusterID := range sortedClusterIDs(ctx) {
		cc := ctx.Clusters[clusterID]
		for _, spuID := range cc.SortedSPUIDs() {
			agg := cc.SPUs[spuID]
			qtys := agg.SortedQuantities(cc.StoreIDs)
			if len(qtys) == 0 {
				continue
			}
			sorted := append([]float64(nil), qtys...)
			sort.Float64s(sorted)
			threshold := stat.Quantile(rc.TopPerformerPercentile, stat.Empirical, sorted, nil)
			meanQty := stat.Mean(qtys, nil)

			for _, storeID := range cc.StoreIDs {
				store, ok := ctx.Stores[storeID]
				if !ok {
					continue
				}
				qty := float64(agg.Quantities[storeID])
				if qty < threshold || qty < rc.OverAllocationRatio*meanQty {
					continue
				}
				if store.CapacityUtilization >= rc.MaxCapacityUtilization {
					continue
				}

				increase := int(math.Round(qty * rc.StrategicIncreaseRatio))
				if increase <= 0 {
					continue
				}
				current := agg.Quantities[storeID]
				target := current + increase
				investment := econ.InvestmentDelta(increase, agg.UnitCost)
				benefit := econ.ExpectedBenefit(increase, agg.SalesPerUnit(storeID), 0.80)

				conf := calc.Calculate(confidence.Evidence{
					ClusterSize: len(cc.StoreIDs),
					RuleCount:   1,
				})

				out = append(out, domain.Recommendation{
					Fingerprint:      domain.Fingerprint{StoreID: storeID, SPUID: spuID},
					RuleIDs:          []domain.RuleID{domain.RuleSmartOvercapacity},
					Category:         agg.Category,
					Subcategory:      agg.Subcategory,
					CurrentQty:       current,
					TargetQty:        target,
					DeltaQty:         increase,
					InvestmentDelta:  investment,
					ExpectedBenefit:  benefit,
					Confidence:       conf.Overall,
					ConfidenceDetail: conf,
					Rationale: fmt.Sprintf("store %s sells SPU %s at the %.0fth percentile of cluster %d with capacity headroom (%.0f%% utilized)",
						storeID, spuID, rc.TopPerformerPercentile*100, clusterID, store.CapacityUtilization*100),
				})
			}
		}
	}

	return out, nil
}
