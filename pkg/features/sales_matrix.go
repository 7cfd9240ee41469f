package features

import (
	"context"
	"sort"

	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
)

// SalesMatrix is a Store x Column matrix of aggregated, row-normalized
// sales, produced by BuildSalesMatrix and BuildSubcategoryMatrix. The
// column dimension is SPU IDs for the former, subcategory names for the
// latter — callers key the columns however assemble_features needs to.
type SalesMatrix struct {
	StoreIDs []string
	Columns  []string
	Data     [][]float64 // Data[i][j] = store i's normalized share of column j
}

// BuildSalesMatrix aggregates sales_qty by (store, spu) over every fact in
// the pipeline's current window, keeps the topN SPUs by total quantity
// sold, and row-normalizes so each store's row sums to 1 (spec.md §4.1:
// "captures mix, not volume").
func BuildSalesMatrix(ctx context.Context, log *logger.Logger, sales []domain.SalesFact, topN int) (*SalesMatrix, error) {
	log = log.WithComponent("feature-assembly")
	if len(sales) == 0 {
		return nil, &errs.InputError{Comp: "feature-assembly", Detail: "no sales facts supplied"}
	}

	storeTotals := make(map[string]map[string]float64) // store -> spu -> qty
	spuTotals := make(map[string]float64)

	for _, f := range sales {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if storeTotals[f.StoreID] == nil {
			storeTotals[f.StoreID] = make(map[string]float64)
		}
		storeTotals[f.StoreID][f.SPUID] += float64(f.SalesQty)
		spuTotals[f.SPUID] += float64(f.SalesQty)
	}

	spuIDs := topNColumns(spuTotals, topN)
	storeIDs := sortedKeys(storeTotals)

	data := make([][]float64, len(storeIDs))
	for i, storeID := range storeIDs {
		row := make([]float64, len(spuIDs))
		for j, spuID := range spuIDs {
			row[j] = storeTotals[storeID][spuID]
		}
		data[i] = row
	}
	rowNormalize(data)

	log.Debugf("built sales matrix: %d stores, %d columns", len(storeIDs), len(spuIDs))
	return &SalesMatrix{StoreIDs: storeIDs, Columns: spuIDs, Data: data}, nil
}

// BuildSubcategoryMatrix aggregates sales_qty by (store, subcategory),
// joining through spus for the subcategory dimension, and row-normalizes
// identically to BuildSalesMatrix. SPU IDs absent from spus are skipped
// and logged rather than aborting the run.
func BuildSubcategoryMatrix(ctx context.Context, log *logger.Logger, sales []domain.SalesFact, spus map[string]domain.SPU) (*SalesMatrix, error) {
	log = log.WithComponent("feature-assembly")
	if len(sales) == 0 {
		return nil, &errs.InputError{Comp: "feature-assembly", Detail: "no sales facts supplied"}
	}

	storeTotals := make(map[string]map[string]float64)
	subcatSet := make(map[string]struct{})
	skipped := 0

	for _, f := range sales {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		spu, ok := spus[f.SPUID]
		if !ok {
			skipped++
			continue
		}
		if storeTotals[f.StoreID] == nil {
			storeTotals[f.StoreID] = make(map[string]float64)
		}
		storeTotals[f.StoreID][spu.Subcategory] += float64(f.SalesQty)
		subcatSet[spu.Subcategory] = struct{}{}
	}
	if skipped > 0 {
		log.Warnf("skipped %d sales facts for unknown SPU", skipped)
	}

	subcats := sortedKeysSet(subcatSet)
	storeIDs := sortedKeys(storeTotals)

	data := make([][]float64, len(storeIDs))
	for i, storeID := range storeIDs {
		row := make([]float64, len(subcats))
		for j, subcat := range subcats {
			row[j] = storeTotals[storeID][subcat]
		}
		data[i] = row
	}
	rowNormalize(data)

	log.Debugf("built subcategory matrix: %d stores, %d columns", len(storeIDs), len(subcats))
	return &SalesMatrix{StoreIDs: storeIDs, Columns: subcats, Data: data}, nil
}

// topNColumns returns the n column keys with the highest total, ties
// broken lexicographically for determinism. n<=0 means "all columns."
func topNColumns(totals map[string]float64, n int) []string {
	keys := sortedKeysFloat(totals)
	sort.SliceStable(keys, func(i, j int) bool {
		if totals[keys[i]] != totals[keys[j]] {
			return totals[keys[i]] > totals[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && n < len(keys) {
		keys = keys[:n]
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysFloat(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
