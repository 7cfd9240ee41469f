package rules

import (
	"math"
	"sort"

	"retail-assortment-optimizer/pkg/domain"
)

// subcategorySPUPrefix marks a Fingerprint.SPUID as a subcategory-level
// key rather than an actual SPU — R9 operates one level coarser than the
// other five rules, and spec.md §4.4 explicitly keys the common output
// table by "spu_id_or_subcategory".
const subcategorySPUPrefix = "SUBCAT:"

func subcategoryFingerprint(subcategory string) string {
	return subcategorySPUPrefix + subcategory
}

func sortedClusterIDs(ctx *RuleContext) []int {
	ids := make([]int, 0, len(ctx.Clusters))
	for id := range ctx.Clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func sortedSubcatKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// topNPerStore keeps at most n recommendations per store, preferring the
// largest |expected benefit| when a store exceeds the cap. Used by R7's
// max_missing_spus_per_store.
func topNPerStore(recs []domain.Recommendation, n int) []domain.Recommendation {
	if n <= 0 {
		return nil
	}
	byStore := make(map[string][]domain.Recommendation)
	var storeOrder []string
	for _, r := range recs {
		id := r.Fingerprint.StoreID
		if _, ok := byStore[id]; !ok {
			storeOrder = append(storeOrder, id)
		}
		byStore[id] = append(byStore[id], r)
	}
	sort.Strings(storeOrder)

	var out []domain.Recommendation
	for _, storeID := range storeOrder {
		group := byStore[storeID]
		sort.SliceStable(group, func(i, j int) bool {
			return math.Abs(group[i].ExpectedBenefit) > math.Abs(group[j].ExpectedBenefit)
		})
		if len(group) > n {
			group = group[:n]
		}
		out = append(out, group...)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
