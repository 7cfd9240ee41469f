package rules

import (
	"fmt"
	"math"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/confidence"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
)

// RunR9 is the Below Minimum rule: a store carrying fewer distinct
// styles in a subcategory than min_styles_per_subcategory (or than a
// fraction of its cluster's benchmark style count) is flagged to add
// styles up to the higher of the two floors. This rule operates at
// (store, subcategory) granularity, one level coarser than the other
// five — spec.md §4.4 keys its output row by "spu_id_or_subcategory".
func RunR9(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error) {
	if len(ctx.Clusters) == 0 {
		return nil, &errs.RuleInputError{RuleID: string(domain.RuleBelowMinimum), Detail: "no validated clusters"}
	}
	rc := cfg.R9
	calc := confidence.NewCalculator()
	var out []domain.Recommendation

	for _, clusterID := range sortedClusterIDs(ctx) {
		cc := ctx.Clusters[clusterID]
		for _, storeID := range cc.StoreIDs {
			counts := cc.StyleCountByStoreSubcat[storeID]
			for _, subcat := range sortedSubcatKeys(counts) {
				count := counts[subcat]
				if count >= rc.MinStylesPerSubcategory {
					continue
				}
				benchmarkFloor := rc.BenchmarkFraction * cc.SubcategoryBenchmark[subcat]
				target := rc.MinStylesPerSubcategory
				if benchmarkFloor > float64(target) {
					target = int(math.Ceil(benchmarkFloor))
				}
				if target <= count {
					continue
				}

				conf := calc.Calculate(confidence.Evidence{
					ClusterSize: len(cc.StoreIDs),
					RuleCount:   1,
				})

				out = append(out, domain.Recommendation{
					Fingerprint:      domain.Fingerprint{StoreID: storeID, SPUID: subcategoryFingerprint(subcat)},
					RuleIDs:          []domain.RuleID{domain.RuleBelowMinimum},
					Subcategory:      subcat,
					CurrentQty:       count,
					TargetQty:        target,
					DeltaQty:         target - count,
					Confidence:       conf.Overall,
					ConfidenceDetail: conf,
					Rationale: fmt.Sprintf("store %s carries %d styles in %s, below cluster %d floor of %d",
						storeID, count, subcat, clusterID, target),
				})
			}
		}
	}

	return out, nil
}
