// Package allocate implements the Group-to-Store Allocation Optimizer,
// the second half of Component C5: it decomposes a group-level
// recommendation (one cluster-category-subcategory row with a total
// quantity delta) into integer per-store shares.
package allocate

import (
	"math"
	"sort"
)

// Apportion implements largest-remainder apportionment (LRM): total
// units are distributed across weights proportionally, floored to
// integers and capped per caps[i], with the rounding residual handed
// out one unit at a time to the stores with the largest fractional
// remainder until either the residual is exhausted or every store has
// hit its cap. Per spec.md §4.5, a saturated cap set reports the
// leftover as residual rather than over-allocating.
//
// len(weights) must equal len(caps); a negative or zero total returns
// all-zero shares with the full total as residual.
func Apportion(total int, weights []float64, caps []int) (shares []int, residual int) {
	n := len(weights)
	shares = make([]int, n)
	if total <= 0 || n == 0 {
		return shares, total
	}

	sumW := 0.0
	for _, w := range weights {
		sumW += w
	}
	if sumW <= 0 {
		// spec.md §4.5: "uniform epsilon if all zero" — every candidate
		// gets an equal share of the proportional allocation.
		uniform := make([]float64, n)
		for i := range uniform {
			uniform[i] = 1.0 / float64(n)
		}
		weights = uniform
		sumW = 1.0
	}

	exact := make([]float64, n)
	remainder := make([]float64, n)
	headroom := make([]int, n)
	allocated := 0
	for i, w := range weights {
		exact[i] = float64(total) * w / sumW
		floor := int(math.Floor(exact[i]))
		remainder[i] = exact[i] - float64(floor)
		shares[i] = floor
		if shares[i] > caps[i] {
			shares[i] = caps[i]
		}
		if shares[i] < 0 {
			shares[i] = 0
		}
		headroom[i] = caps[i] - shares[i]
		allocated += shares[i]
	}

	remaining := total - allocated
	if remaining <= 0 {
		return shares, 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if remainder[order[a]] != remainder[order[b]] {
			return remainder[order[a]] > remainder[order[b]]
		}
		return order[a] < order[b]
	})

	for remaining > 0 {
		progressed := false
		for _, idx := range order {
			if remaining == 0 {
				break
			}
			if headroom[idx] <= 0 {
				continue
			}
			shares[idx]++
			headroom[idx]--
			remaining--
			progressed = true
		}
		if !progressed {
			break // every store is at cap; the rest is unallocatable
		}
	}

	return shares, remaining
}
