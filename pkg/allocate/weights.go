package allocate

import (
	"math"
	"regexp"
	"strconv"

	"retail-assortment-optimizer/pkg/domain"
)

// uniformEpsilon is the sales-share fallback spec.md §4.5 calls for when
// every candidate store has zero recent sales for the group's
// category/subcategory — an even split rather than a division by zero.
const uniformEpsilon = 1e-6

// SalesShares computes each store's share of amounts summed across
// storeIDs, falling back to a uniform split if every amount is zero.
func SalesShares(storeIDs []string, amountByStore map[string]float64) map[string]float64 {
	total := 0.0
	for _, id := range storeIDs {
		total += amountByStore[id]
	}
	shares := make(map[string]float64, len(storeIDs))
	if total <= uniformEpsilon {
		uniform := 1.0 / float64(len(storeIDs))
		for _, id := range storeIDs {
			shares[id] = uniform
		}
		return shares
	}
	for _, id := range storeIDs {
		shares[id] = amountByStore[id] / total
	}
	return shares
}

// CapacityHeadroom is max(0, 1 - capacity_utilization), per spec.md §4.5.
func CapacityHeadroom(store domain.Store) float64 {
	h := 1 - store.CapacityUtilization
	if h < 0 {
		return 0
	}
	return h
}

var bandPattern = regexp.MustCompile(`^(-?\d+)-(-?\d+)$`)

// bandMidpoint estimates a representative feels-like temperature for a
// cluster's TemperatureBand, parsing the "lo-hi" label
// domain.BandForTemperature produces.
func bandMidpoint(band domain.TemperatureBand) float64 {
	m := bandPattern.FindStringSubmatch(string(band))
	if m == nil {
		return 15 // lower edge of domain.TempModerate, a fallback for an unparsable band
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	return float64(lo+hi) / 2
}

// temperatureSeasonFit is spec.md §4.5's suitability table, first
// column: Hot/Moderate with Summer or AllYear is a strong fit (1.0);
// Cool/Moderate with Autumn or Spring is a partial fit (0.8); Cool/
// Moderate with Winter is a strong fit (1.0). Combinations the table
// doesn't name (e.g. Hot with Winter) fall back to the table's
// mismatch factor (0.7) — the same floor the store-type row uses for
// "unknown/mismatch", since both describe a SPU placed somewhere its
// season or style doesn't suit.
func temperatureSeasonFit(class domain.TemperatureClass, season domain.Season) float64 {
	warmSide := class == domain.TempHot || class == domain.TempModerate
	coolSide := class == domain.TempCool || class == domain.TempModerate
	switch {
	case warmSide && (season == domain.SeasonSummer || season == domain.SeasonAllYear):
		return 1.0
	case coolSide && (season == domain.SeasonAutumn || season == domain.SeasonSpring):
		return 0.8
	case coolSide && season == domain.SeasonWinter:
		return 1.0
	default:
		return 0.7
	}
}

// storeTypeAlignment is spec.md §4.5's suitability table, second column:
// a store whose merchandising style matches the group's category gets
// 1.0, a Balanced store counts as "mixed" at 0.9, and every other
// pairing is treated as a mismatch at 0.7.
func storeTypeAlignment(style domain.StoreStyle, category string) float64 {
	switch style {
	case domain.StoreStyleBalance:
		return 0.9
	case domain.StoreStyleFashion:
		if category == "Fashion" {
			return 1.0
		}
	case domain.StoreStyleBasic:
		if category == "Basic" {
			return 1.0
		}
	}
	return 0.7
}

// Suitability multiplies the temperature-season fit and store-type
// alignment factors for one store against one group.
func Suitability(store domain.Store, band domain.TemperatureBand, season domain.Season, category string) float64 {
	class := domain.ClassifyFeelsLike(bandMidpoint(band))
	return temperatureSeasonFit(class, season) * storeTypeAlignment(store.Style, category)
}

// CompositeWeight combines the three per-store factors into the
// unnormalized weight w_s ∝ sales_share^α · capacity_headroom^β ·
// suitability^γ spec.md §4.5 defines. Factors at or below zero are
// floored to a tiny positive epsilon so a single zero factor doesn't
// zero out the whole product for a store that's otherwise a reasonable
// candidate (a store with no sales history yet shouldn't receive
// nothing forever).
func CompositeWeight(salesShare, capacityHeadroom, suitability, alpha, beta, gamma float64) float64 {
	return math.Pow(floorEpsilon(salesShare), alpha) *
		math.Pow(floorEpsilon(capacityHeadroom), beta) *
		math.Pow(floorEpsilon(suitability), gamma)
}

func floorEpsilon(v float64) float64 {
	if v <= uniformEpsilon {
		return uniformEpsilon
	}
	return v
}

// StoreCap is spec.md §4.5's per-store cap: min(max_per_store,
// round(headroom · headroom_unit_scale)), zeroed outright for a store
// already above capacity_max_util.
func StoreCap(store domain.Store, maxPerStore int, headroomUnitScale, capacityMaxUtil float64) int {
	if store.CapacityUtilization > capacityMaxUtil {
		return 0
	}
	cap := int(math.Round(CapacityHeadroom(store) * headroomUnitScale))
	if cap > maxPerStore {
		cap = maxPerStore
	}
	if cap < 0 {
		cap = 0
	}
	return cap
}
