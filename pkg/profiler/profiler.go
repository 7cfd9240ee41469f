// Package profiler is the Cluster Profiler (C3): it turns a Cluster's raw
// member data into the descriptive fields spec.md §4.3 requires —
// fashion/basic ratio, style classification, capacity tier, the
// GeoTag/BusinessTag/CapacityTag operational tag, and the plain-language
// profile resolved via pkg/profile. Grounded in the teacher's
// straight-line "compute stats, classify, attach labels" shape (no
// equivalent teacher component does descriptive labeling, so this package
// is new code written in the teacher's plain, low-ceremony style).
package profiler

import (
	"fmt"
	"sort"

	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/profile"
)

// StoreFashionShare is one store's fraction of sales amount attributable
// to Fashion-style SPUs vs Basic-style SPUs, computed upstream from
// SalesFact joined to the SPU dimension.
type StoreFashionShare struct {
	StoreID      string
	FashionShare float64 // in [0,1]
	BasicShare   float64 // in [0,1]
}

// Profiler computes ClusterStats and resolves the plain-language Profile
// for each Cluster.
type Profiler struct {
	resolver *profile.Resolver
}

// New returns a Profiler using the default profile template set.
func New() *Profiler {
	return &Profiler{resolver: profile.NewResolver()}
}

// NewWithResolver returns a Profiler over a caller-supplied Resolver, e.g.
// one seeded with operator-registered templates.
func NewWithResolver(r *profile.Resolver) *Profiler {
	return &Profiler{resolver: r}
}

// Profile computes stats, classifies style and capacity, builds the
// operational tag, and resolves a plain-language Profile for c, mutating
// c in place with Metrics.Silhouette already set by the Clustering Engine.
// shares and weather must contain an entry for every store in
// c.MemberStoreIDs; stores must contain every member's Store record.
func (p *Profiler) Profile(c *domain.Cluster, shares map[string]StoreFashionShare,
	weather map[string]domain.StoreWeatherProfile, stores map[string]domain.Store) (domain.ClusterStats, error) {

	stats, err := computeStats(c, shares, weather, stores)
	if err != nil {
		return domain.ClusterStats{}, err
	}

	tag := buildOperationalTag(stats)
	resolved, err := p.resolver.Resolve(profile.ClusterStatsInput{
		Style:        stats.StyleClass,
		Capacity:     stats.CapacityTier,
		MemberCount:  stats.MemberCount,
		FashionRatio: stats.FashionRatio,
		BasicRatio:   stats.BasicRatio,
		AvgCapacity:  stats.AvgRackCapacity,
	})
	if err != nil {
		return domain.ClusterStats{}, fmt.Errorf("profiler: cluster %d: %w", c.ClusterID, err)
	}

	c.Rating = domain.RatingFromSilhouette(stats.Silhouette)
	c.OperationalTag = tag
	c.Profile = resolved

	return stats, nil
}

func computeStats(c *domain.Cluster, shares map[string]StoreFashionShare,
	weather map[string]domain.StoreWeatherProfile, stores map[string]domain.Store) (domain.ClusterStats, error) {

	n := len(c.MemberStoreIDs)
	if n == 0 {
		return domain.ClusterStats{}, fmt.Errorf("profiler: cluster %d has no members", c.ClusterID)
	}

	var fashionSum, basicSum, feelsLikeSum, capacitySum float64
	for _, storeID := range c.MemberStoreIDs {
		share, ok := shares[storeID]
		if !ok {
			return domain.ClusterStats{}, fmt.Errorf("profiler: cluster %d: no fashion share for store %s", c.ClusterID, storeID)
		}
		wx, ok := weather[storeID]
		if !ok {
			return domain.ClusterStats{}, fmt.Errorf("profiler: cluster %d: no weather profile for store %s", c.ClusterID, storeID)
		}
		st, ok := stores[storeID]
		if !ok {
			return domain.ClusterStats{}, fmt.Errorf("profiler: cluster %d: no store record for %s", c.ClusterID, storeID)
		}

		fashionSum += share.FashionShare
		basicSum += share.BasicShare
		feelsLikeSum += wx.AvgFeelsLike
		capacitySum += float64(st.EstimatedRackCapacity)
	}

	fashionRatio := fashionSum / float64(n)
	basicRatio := basicSum / float64(n)
	avgFeelsLike := feelsLikeSum / float64(n)
	avgCapacity := capacitySum / float64(n)

	stats := domain.ClusterStats{
		ClusterID:       c.ClusterID,
		FashionRatio:    fashionRatio,
		BasicRatio:      basicRatio,
		AvgFeelsLike:    avgFeelsLike,
		AvgRackCapacity: avgCapacity,
		MemberCount:     n,
		Silhouette:      c.Metrics.Silhouette,
		StyleClass:      classifyStyle(fashionRatio, basicRatio),
		CapacityTier:    domain.CapacityTierFromAvg(avgCapacity),
	}
	return stats, nil
}

// classifyStyle applies spec.md §4.3's thresholds: Fashion-Focused if
// fashion_ratio >= 0.60, Basic-Focused if basic_ratio >= 0.60, else
// Balanced. Fashion is checked first so a cluster that (degenerately)
// clears both thresholds is labeled Fashion-Focused.
func classifyStyle(fashionRatio, basicRatio float64) domain.StyleClassification {
	switch {
	case fashionRatio >= 0.60:
		return domain.StyleFashionFocused
	case basicRatio >= 0.60:
		return domain.StyleBasicFocused
	default:
		return domain.StyleBalanced
	}
}

// geoTag derives spec.md §4.3's GeoTag from average feels-like
// temperature. The repo never enumerates exact boundaries (spec.md §9);
// these mirror the three-way split used elsewhere for temperature
// classification.
func geoTag(avgFeelsLike float64) domain.GeoTag {
	switch {
	case avgFeelsLike >= 20:
		return domain.GeoWarmSouth
	case avgFeelsLike >= 10:
		return domain.GeoModerateCentral
	default:
		return domain.GeoCoolNorth
	}
}

func businessTag(style domain.StyleClassification) domain.BusinessTag {
	switch style {
	case domain.StyleFashionFocused:
		return domain.BusinessFashionHeavy
	case domain.StyleBasicFocused:
		return domain.BusinessBasicFocus
	default:
		return domain.BusinessBalancedMix
	}
}

func capacityTag(tier domain.CapacityTier) domain.CapacityTag {
	switch tier {
	case domain.CapacityTierLarge:
		return domain.CapacityLargeVolume
	case domain.CapacityTierMedium:
		return domain.CapacityHighCapacity
	default:
		return domain.CapacityEfficient
	}
}

func buildOperationalTag(stats domain.ClusterStats) domain.OperationalTag {
	return domain.OperationalTag{
		Geo:      geoTag(stats.AvgFeelsLike),
		Business: businessTag(stats.StyleClass),
		Capacity: capacityTag(stats.CapacityTier),
	}
}

// ProfileAll profiles every cluster in clusters, returning the computed
// stats for each in cluster order. It stops at the first error — a
// profiling failure means the feature pipeline upstream produced an
// incomplete join, which is always a defect worth surfacing immediately
// rather than masking with a partial result.
func ProfileAll(p *Profiler, clusters []*domain.Cluster, shares map[string]StoreFashionShare,
	weather map[string]domain.StoreWeatherProfile, stores map[string]domain.Store) ([]domain.ClusterStats, error) {

	sorted := make([]*domain.Cluster, len(clusters))
	copy(sorted, clusters)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ClusterID < sorted[j].ClusterID })

	out := make([]domain.ClusterStats, 0, len(sorted))
	for _, c := range sorted {
		stats, err := p.Profile(c, shares, weather, stores)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}
