package features

import (
	"retail-assortment-optimizer/pkg/domain"
)

// categoryFashion and categoryBasic are the two top-level SPU categories
// that drive a store's fashion_ratio/basic_ratio feature (spec.md §3,
// §4.1); any other category value contributes to neither share's
// numerator but still counts in the shared denominator.
const (
	categoryFashion = "Fashion"
	categoryBasic   = "Basic"
)

// StoreShare is one store's sales mix between fashion and basic SPUs,
// plus the distinct SKU count Feature Assembly's InsufficientDataError
// gate checks against min_skus.
type StoreShare struct {
	StoreID      string
	FashionShare float64 // in [0,1]
	BasicShare   float64 // in [0,1]
	SKUCount     int
	TotalSales   float64
}

// ComputeFashionShare aggregates sales_amt per store across the Fashion
// and Basic categories, producing the fashion_ratio/basic_ratio pair the
// style feature group and the Cluster Profiler (C3) both consume.
// Stores with zero total sales get a zero/zero share rather than NaN.
func ComputeFashionShare(sales []domain.SalesFact, spus map[string]domain.SPU) map[string]StoreShare {
	type totals struct {
		fashion, basic, all float64
		skus                map[string]struct{}
	}
	byStore := make(map[string]*totals)

	for _, f := range sales {
		spu, ok := spus[f.SPUID]
		if !ok {
			continue
		}
		t, ok := byStore[f.StoreID]
		if !ok {
			t = &totals{skus: make(map[string]struct{})}
			byStore[f.StoreID] = t
		}
		t.all += f.SalesAmt
		t.skus[f.SPUID] = struct{}{}
		switch spu.Category {
		case categoryFashion:
			t.fashion += f.SalesAmt
		case categoryBasic:
			t.basic += f.SalesAmt
		}
	}

	out := make(map[string]StoreShare, len(byStore))
	for storeID, t := range byStore {
		share := StoreShare{StoreID: storeID, SKUCount: len(t.skus), TotalSales: t.all}
		if t.all > 0 {
			share.FashionShare = t.fashion / t.all
			share.BasicShare = t.basic / t.all
		}
		out[storeID] = share
	}
	return out
}
