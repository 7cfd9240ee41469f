package allocate

import (
	"fmt"
	"sort"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
)

// Allocator decomposes group-level recommendations into per-store shares
// using the composite weight formula and the Apportion LRM primitive.
type Allocator struct {
	cfg config.AllocatorConfig
	log *logger.Logger
}

func New(cfg config.AllocatorConfig) *Allocator {
	return &Allocator{cfg: cfg, log: logger.WithComponent("allocate")}
}

// StoreAllocation is one group's share assigned to one member store.
type StoreAllocation struct {
	StoreID         string
	ClusterID       int
	Category        string
	Subcategory     string
	DeltaQtyStore   int
	CompositeWeight float64
	Cap             int
	RuleIDs         []domain.RuleID
	Confidence      float64
	Rationale       string
}

// GroupResult is one group recommendation's allocation outcome, tracking
// the reconciliation law sum(allocations) + residual == ExpectedDeltaQty.
type GroupResult struct {
	GroupKey          string
	ExpectedDeltaQty  int
	AllocatedDeltaQty int
	Residual          int
	StoresAtCap       int
	Allocations       []StoreAllocation
	ReconciliationErr *errs.ReconciliationError // non-nil iff Residual != 0
}

// AllocateGroup decomposes g.DeltaQty across g.StoreIDs. band is the
// member cluster's TemperatureBand, used for the suitability factor;
// stores and salesAmtByStore must cover every id in g.StoreIDs.
func (a *Allocator) AllocateGroup(g domain.GroupRecommendation, band domain.TemperatureBand, stores map[string]domain.Store, salesAmtByStore map[string]float64) GroupResult {
	key := groupKey(g)
	if len(g.StoreIDs) == 0 {
		return GroupResult{GroupKey: key, ExpectedDeltaQty: g.DeltaQty, Residual: g.DeltaQty}
	}

	shares := SalesShares(g.StoreIDs, salesAmtByStore)

	weights := make([]float64, len(g.StoreIDs))
	caps := make([]int, len(g.StoreIDs))
	suitabilities := make([]float64, len(g.StoreIDs))
	for i, id := range g.StoreIDs {
		st := stores[id]
		suit := Suitability(st, band, g.Season, g.Category)
		suitabilities[i] = suit
		weights[i] = CompositeWeight(shares[id], CapacityHeadroom(st), suit, a.cfg.AlphaSales, a.cfg.BetaCapacity, a.cfg.GammaFit)
		caps[i] = StoreCap(st, a.cfg.MaxPerStore, a.cfg.HeadroomUnitScale, a.cfg.CapacityMaxUtil)
	}

	absTotal := g.DeltaQty
	negative := absTotal < 0
	if negative {
		absTotal = -absTotal
	}
	distributed, residual := Apportion(absTotal, weights, caps)

	allocations := make([]StoreAllocation, len(g.StoreIDs))
	atCap := 0
	allocated := 0
	for i, id := range g.StoreIDs {
		qty := distributed[i]
		if negative {
			qty = -qty
		}
		allocations[i] = StoreAllocation{
			StoreID:         id,
			ClusterID:       g.ClusterID,
			Category:        g.Category,
			Subcategory:     g.Subcategory,
			DeltaQtyStore:   qty,
			CompositeWeight: weights[i],
			Cap:             caps[i],
			RuleIDs:         g.RuleIDs,
			Confidence:      g.Confidence,
			Rationale:       g.Rationale,
		}
		allocated += distributed[i]
		if distributed[i] == caps[i] && caps[i] > 0 {
			atCap++
		}
	}
	sort.SliceStable(allocations, func(i, j int) bool { return allocations[i].StoreID < allocations[j].StoreID })

	allocatedSigned := allocated
	residualSigned := residual
	if negative {
		allocatedSigned = -allocated
		residualSigned = -residual
	}

	result := GroupResult{
		GroupKey:          key,
		ExpectedDeltaQty:  g.DeltaQty,
		AllocatedDeltaQty: allocatedSigned,
		Residual:          residualSigned,
		StoresAtCap:       atCap,
		Allocations:       allocations,
	}
	if residual != 0 {
		result.ReconciliationErr = &errs.ReconciliationError{GroupKey: key, Residual: residualSigned}
		a.log.Warnf("allocate: group %s left %d units unallocatable (all %d eligible stores at cap)", key, residualSigned, atCap)
	}
	return result
}

func groupKey(g domain.GroupRecommendation) string {
	return fmt.Sprintf("C%d/%s/%s/%s/%s/%s", g.ClusterID, g.Category, g.Subcategory, g.Season, g.Gender, g.Location)
}
