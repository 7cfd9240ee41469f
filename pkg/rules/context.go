// Package rules is the Rule Engine (C4): six independent business rules
// that compare each store to its cluster peers and emit Recommendation
// rows. Every rule reads the same RuleContext — cluster assignments plus
// sales joined to the SPU dimension plus cluster-level aggregates — per
// spec.md §9's explicit re-architecture note that the source system's
// copy-pasted per-rule aggregation code should collapse into one shared
// context and six structurally uniform rule functions.
package rules

import (
	"fmt"
	"sort"

	"retail-assortment-optimizer/pkg/domain"
)

// SPUAggregate holds cluster-scoped per-store quantity and sales-amount
// data for one SPU, built once by NewRuleContext and read by every rule
// that needs peer comparisons for that SPU.
type SPUAggregate struct {
	SPUID       string
	Category    string
	Subcategory string
	Role        domain.SPURole
	UnitCost    float64

	Quantities map[string]int     // storeID -> qty (absent key == 0, not stocked)
	Amounts    map[string]float64 // storeID -> sales amt (absent key == 0)

	AdoptingStores int     // member stores with qty > 0
	TotalSalesAmt  float64 // summed across every member store, adopting or not
}

// AdoptionFraction is the share of memberCount stores stocking this SPU
// at all — the denominator R7 compares to adoption_threshold.
func (a *SPUAggregate) AdoptionFraction(memberCount int) float64 {
	if memberCount == 0 {
		return 0
	}
	return float64(a.AdoptingStores) / float64(memberCount)
}

// SortedQuantities returns per-store quantities in the order storeIDs
// lists them, so the result aligns positionally with storeIDs for
// anomaly detection and gonum statistics.
func (a *SPUAggregate) SortedQuantities(storeIDs []string) []float64 {
	out := make([]float64, len(storeIDs))
	for i, id := range storeIDs {
		out[i] = float64(a.Quantities[id])
	}
	return out
}

// SortedAmounts is SortedQuantities' sales-amount counterpart.
func (a *SPUAggregate) SortedAmounts(storeIDs []string) []float64 {
	out := make([]float64, len(storeIDs))
	for i, id := range storeIDs {
		out[i] = a.Amounts[id]
	}
	return out
}

// SalesPerUnit estimates a store's historical sales-per-unit for this
// SPU (sales_amt / sales_qty), the conversion R11/R12 use to translate a
// dollar opportunity into a quantity recommendation. A store that
// hasn't stocked the SPU falls back to the cluster-wide average across
// adopting stores.
func (a *SPUAggregate) SalesPerUnit(storeID string) float64 {
	if qty := a.Quantities[storeID]; qty > 0 {
		return a.Amounts[storeID] / float64(qty)
	}
	var totalAmt float64
	var totalQty int
	for id, qty := range a.Quantities {
		if qty <= 0 {
			continue
		}
		totalAmt += a.Amounts[id]
		totalQty += qty
	}
	if totalQty == 0 {
		return 0
	}
	return totalAmt / float64(totalQty)
}

// ClusterContext bundles one validated cluster with the per-SPU
// aggregates and per-store subcategory coverage every rule reads.
type ClusterContext struct {
	Cluster  domain.Cluster
	StoreIDs []string // sorted, for deterministic iteration

	SPUs map[string]*SPUAggregate // spuID -> aggregate, restricted to this cluster's sales

	// StyleCountByStoreSubcat[storeID][subcategory] is the number of
	// distinct SPUs that store stocks (qty > 0) in that subcategory —
	// R9's "styles per subcategory" count.
	StyleCountByStoreSubcat map[string]map[string]int

	// SubcategoryBenchmark[subcategory] is the cluster's mean style
	// count for that subcategory across member stores, R9's
	// cluster_benchmark.
	SubcategoryBenchmark map[string]float64
}

// SortedSPUIDs returns the cluster's stocked SPU IDs in deterministic order.
func (c *ClusterContext) SortedSPUIDs() []string {
	ids := make([]string, 0, len(c.SPUs))
	for id := range c.SPUs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RuleContext is the single shared view every business rule reads from.
type RuleContext struct {
	Clusters       map[int]*ClusterContext
	ClusterOfStore map[string]int
	Stores         map[string]domain.Store
	SPUs           map[string]domain.SPU
}

// SPURole looks up a SPU's role classification for the Sell-Through
// Validator; ok is false for the synthetic subcategory-level keys R9 emits.
func (rc *RuleContext) SPURole(spuID string) (domain.SPURole, bool) {
	spu, ok := rc.SPUs[spuID]
	if !ok {
		return "", false
	}
	return spu.Role, true
}

// NewRuleContext builds the shared aggregates once from validated
// clusters, the store/SPU dimensions, and sales facts.
func NewRuleContext(clusters []domain.Cluster, stores []domain.Store, spus []domain.SPU, sales []domain.SalesFact) (*RuleContext, error) {
	if len(clusters) == 0 {
		return nil, fmt.Errorf("rules: no validated clusters supplied")
	}

	storeIndex := make(map[string]domain.Store, len(stores))
	for _, s := range stores {
		storeIndex[s.StoreID] = s
	}
	spuIndex := make(map[string]domain.SPU, len(spus))
	for _, spu := range spus {
		spuIndex[spu.SPUID] = spu
	}

	clusterOfStore := make(map[string]int)
	clusterCtxs := make(map[int]*ClusterContext, len(clusters))
	for _, c := range clusters {
		ids := append([]string(nil), c.MemberStoreIDs...)
		sort.Strings(ids)
		for _, id := range ids {
			clusterOfStore[id] = c.ClusterID
		}
		clusterCtxs[c.ClusterID] = &ClusterContext{
			Cluster:                 c,
			StoreIDs:                ids,
			SPUs:                    make(map[string]*SPUAggregate),
			StyleCountByStoreSubcat: make(map[string]map[string]int),
		}
	}

	for _, fact := range sales {
		clusterID, ok := clusterOfStore[fact.StoreID]
		if !ok {
			continue // store not a member of any validated cluster
		}
		spu, ok := spuIndex[fact.SPUID]
		if !ok {
			return nil, fmt.Errorf("rules: sales fact references unknown SPU %s", fact.SPUID)
		}

		cc := clusterCtxs[clusterID]
		agg := cc.SPUs[fact.SPUID]
		if agg == nil {
			agg = &SPUAggregate{
				SPUID:       fact.SPUID,
				Category:    spu.Category,
				Subcategory: spu.Subcategory,
				Role:        spu.Role,
				UnitCost:    spu.UnitCost,
				Quantities:  make(map[string]int),
				Amounts:     make(map[string]float64),
			}
			cc.SPUs[fact.SPUID] = agg
		}
		agg.Quantities[fact.StoreID] += fact.SalesQty
		agg.Amounts[fact.StoreID] += fact.SalesAmt
	}

	for _, cc := range clusterCtxs {
		finalizeClusterContext(cc)
	}

	return &RuleContext{
		Clusters:       clusterCtxs,
		ClusterOfStore: clusterOfStore,
		Stores:         storeIndex,
		SPUs:           spuIndex,
	}, nil
}

// finalizeClusterContext derives AdoptingStores/TotalSalesAmt per SPU and
// the subcategory style-count tables, once all sales facts are folded in.
func finalizeClusterContext(cc *ClusterContext) {
	subcatStoreSPUs := make(map[string]map[string]map[string]bool) // subcategory -> storeID -> set of spuIDs stocked

	for spuID, agg := range cc.SPUs {
		for _, storeID := range cc.StoreIDs {
			qty := agg.Quantities[storeID]
			agg.TotalSalesAmt += agg.Amounts[storeID]
			if qty <= 0 {
				continue
			}
			agg.AdoptingStores++
			if subcatStoreSPUs[agg.Subcategory] == nil {
				subcatStoreSPUs[agg.Subcategory] = make(map[string]map[string]bool)
			}
			if subcatStoreSPUs[agg.Subcategory][storeID] == nil {
				subcatStoreSPUs[agg.Subcategory][storeID] = make(map[string]bool)
			}
			subcatStoreSPUs[agg.Subcategory][storeID][spuID] = true
		}
	}

	cc.SubcategoryBenchmark = make(map[string]float64)
	for subcat, byStore := range subcatStoreSPUs {
		var sum float64
		for _, storeID := range cc.StoreIDs {
			count := len(byStore[storeID])
			sum += float64(count)
			if cc.StyleCountByStoreSubcat[storeID] == nil {
				cc.StyleCountByStoreSubcat[storeID] = make(map[string]int)
			}
			cc.StyleCountByStoreSubcat[storeID][subcat] = count
		}
		if len(cc.StoreIDs) > 0 {
			cc.SubcategoryBenchmark[subcat] = sum / float64(len(cc.StoreIDs))
		}
	}
}
