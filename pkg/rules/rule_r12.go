package rules

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"retail-assortment-optimizer/pkg/anomaly"
	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/confidence"
	"retail-assortment-optimizer/pkg/cost"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
)

// RunR12 is the Sales Performance Gap rule: a store whose sales amount
// for a SPU is a significant negative Z-score outlier against its
// cluster peers is flagged to close the gap toward a benchmark
// percentile of the cluster's sales distribution, gated by minimum ROI.
func RunR12(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error) {
	if len(ctx.Clusters) == 0 {
		return nil, &errs.RuleInputError{RuleID: string(domain.RuleSalesPerformanceGap), Detail: "no validated clusters"}
	}
	rc := cfg.R12
	detector := anomaly.NewZScoreDetectorWithThreshold(math.Abs(rc.ZThreshold))
	calc := confidence.NewCalculator()
	econ := cost.NewEconomics()
	var out []domain.Recommendation

	for _, clusterID := range sortedClusterIDs(ctx) {
		cc := ctx.Clusters[clusterID]
		for _, spuID := range cc.SortedSPUIDs() {
			agg := cc.SPUs[spuID]
			amts := agg.SortedAmounts(cc.StoreIDs)
			result := detector.DetectWithLabels(amts, cc.StoreIDs)
			if !result.HasOutliers() {
				continue
			}

			sortedAmts := append([]float64(nil), amts...)
			sort.Float64s(sortedAmts)
			// benchmark_percentile names the target as a distribution
			// quantile rather than a literal cluster mean, so
			// BenchmarkPercentile actually drives the target formula
			// instead of sitting unused alongside cluster_mean.
			benchmarkTarget := stat.Quantile(rc.BenchmarkPercentile/100, stat.Empirical, sortedAmts, nil)

			for _, outlier := range result.Outliers {
				if outlier.Direction != anomaly.DirectionBelow {
					continue
				}
				gap := math.Abs(outlier.Deviation)
				if gap < rc.MinOpportunityGap {
					continue
				}
				storeID := outlier.Label
				amtGap := econ.OpportunityGap(benchmarkTarget, agg.Amounts[storeID])
				if amtGap <= 0 {
					continue
				}
				salesPerUnit := agg.SalesPerUnit(storeID)
				if salesPerUnit <= 0 {
					continue
				}
				deltaQty := int(amtGap / salesPerUnit)
				if deltaQty <= 0 {
					continue
				}
				if deltaQty > rc.MaxIncreasePerStore {
					deltaQty = rc.MaxIncreasePerStore
				}

				current := agg.Quantities[storeID]
				investment := econ.InvestmentDelta(deltaQty, agg.UnitCost)
				benefit := econ.ExpectedBenefit(deltaQty, salesPerUnit, 0.70)
				if econ.ROI(benefit, investment) < rc.MinROI {
					continue
				}

				conf := calc.Calculate(confidence.Evidence{
					ClusterSize: len(cc.StoreIDs),
					ZMagnitude:  gap,
					RuleCount:   1,
				})

				out = append(out, domain.Recommendation{
					Fingerprint:      domain.Fingerprint{StoreID: storeID, SPUID: spuID},
					RuleIDs:          []domain.RuleID{domain.RuleSalesPerformanceGap},
					Category:         agg.Category,
					Subcategory:      agg.Subcategory,
					CurrentQty:       current,
					TargetQty:        current + deltaQty,
					DeltaQty:         deltaQty,
					InvestmentDelta:  investment,
					ExpectedBenefit:  benefit,
					Confidence:       conf.Overall,
					ConfidenceDetail: conf,
					Rationale: fmt.Sprintf("store %s sales for SPU %s trail cluster %d benchmark (Z=%.2f)",
						storeID, spuID, clusterID, outlier.Deviation),
				})
			}
		}
	}

	return topNPerStore(out, rc.FocusTopN), nil
}
