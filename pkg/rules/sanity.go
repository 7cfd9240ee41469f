package rules

import (
	"sort"
	"strings"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/cost"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/sellthrough"
)

// ApplySanity enforces spec.md §4.4's universal sanity constraints
// against one batch of recommendations: it is called once per rule on
// that rule's own output (spec.md §4.4) and again by the Consolidator on
// the fully merged set (spec.md §4.5) — the same primitive, a wider
// input the second time. A recommendation failing the Sell-Through
// Validator is dropped outright; once a store's running totals exceed a
// cap, its lowest-confidence recommendations are dropped until the cap
// holds again.
func ApplySanity(recs []domain.Recommendation, roleOf func(spuID string) (domain.SPURole, bool),
	sanity config.SanityConfig, stCfg config.SellThroughConfig) ([]domain.Recommendation, []*errs.ValidationError) {

	validator := sellthrough.NewValidator(stCfg)
	var passedGate []domain.Recommendation
	var rejected []*errs.ValidationError

	for _, r := range recs {
		if strings.HasPrefix(r.Fingerprint.SPUID, subcategorySPUPrefix) {
			passedGate = append(passedGate, r) // no SPU role to validate at this granularity
			continue
		}
		role, ok := roleOf(r.Fingerprint.SPUID)
		if !ok {
			passedGate = append(passedGate, r)
			continue
		}
		res := validator.Evaluate(role, r.DeltaQty)
		if !res.Pass {
			rejected = append(rejected, &errs.ValidationError{
				StoreID: r.Fingerprint.StoreID, SPUID: r.Fingerprint.SPUID,
				Constraint: "sell_through: " + res.Reason,
			})
			continue
		}
		passedGate = append(passedGate, r)
	}

	kept, capRejections := enforceCaps(passedGate, sanity)
	rejected = append(rejected, capRejections...)

	sort.SliceStable(rejected, func(i, j int) bool {
		if rejected[i].StoreID != rejected[j].StoreID {
			return rejected[i].StoreID < rejected[j].StoreID
		}
		return rejected[i].SPUID < rejected[j].SPUID
	})
	return kept, rejected
}

// enforceCaps walks each store's recommendations highest-confidence
// first, admitting a recommendation only while it keeps the store under
// max_total_spu_changes_per_store, max_total_quantity_changes_per_store,
// and max_investment_per_store.
func enforceCaps(recs []domain.Recommendation, sanity config.SanityConfig) ([]domain.Recommendation, []*errs.ValidationError) {
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

	var kept []domain.Recommendation
	var rejected []*errs.ValidationError
	for _, storeID := range storeOrder {
		group := byStore[storeID]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Confidence > group[j].Confidence })

		var summary cost.StoreInvestmentSummary
		seenSPU := make(map[string]bool)
		spuCount, qtyTotal := 0, 0

		for _, r := range group {
			newSPU := !seenSPU[r.Fingerprint.SPUID]
			candidateSPUCount := spuCount
			if newSPU {
				candidateSPUCount++
			}
			candidateQtyTotal := qtyTotal + absInt(r.DeltaQty)
			candidateInvestment := summary.TotalInvestment + r.InvestmentDelta

			switch {
			case candidateSPUCount > sanity.MaxTotalSPUChangesPerStore:
				rejected = append(rejected, &errs.ValidationError{StoreID: storeID, SPUID: r.Fingerprint.SPUID, Constraint: "max_total_spu_changes_per_store"})
				continue
			case candidateQtyTotal > sanity.MaxTotalQuantityChangesPerStore:
				rejected = append(rejected, &errs.ValidationError{StoreID: storeID, SPUID: r.Fingerprint.SPUID, Constraint: "max_total_quantity_changes_per_store"})
				continue
			case candidateInvestment > sanity.MaxInvestmentPerStore:
				rejected = append(rejected, &errs.ValidationError{StoreID: storeID, SPUID: r.Fingerprint.SPUID, Constraint: "max_investment_per_store"})
				continue
			}

			if newSPU {
				seenSPU[r.Fingerprint.SPUID] = true
				spuCount = candidateSPUCount
			}
			qtyTotal = candidateQtyTotal
			summary.Add(r.InvestmentDelta, r.ExpectedBenefit)
			kept = append(kept, r)
		}
	}
	return kept, rejected
}
