package outputs

import (
	"sort"

	"retail-assortment-optimizer/pkg/allocate"
	"retail-assortment-optimizer/pkg/consolidate"
	"retail-assortment-optimizer/pkg/domain"
)

// BuildClusterAssignments flattens each cluster's membership into one row
// per store, sorted by store_id for a deterministic write order.
func BuildClusterAssignments(clusters []domain.Cluster) []ClusterAssignmentRow {
	var rows []ClusterAssignmentRow
	for _, c := range clusters {
		for _, storeID := range c.MemberStoreIDs {
			rows = append(rows, ClusterAssignmentRow{
				StoreID:         storeID,
				ClusterID:       c.ClusterID,
				TemperatureBand: c.TemperatureBand,
				Silhouette:      c.Metrics.Silhouette,
				OperationalTag:  c.OperationalTag.String(),
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].StoreID < rows[j].StoreID })
	return rows
}

// BuildClusterLabelsFromStats is the builder used once the Cluster
// Profiler has run: stats carries the StyleClassification and
// CapacityTier the bare Cluster doesn't.
func BuildClusterLabelsFromStats(clusters []domain.Cluster, stats map[int]domain.ClusterStats) []ClusterLabelRow {
	rows := make([]ClusterLabelRow, 0, len(clusters))
	for _, c := range clusters {
		s := stats[c.ClusterID]
		rows = append(rows, ClusterLabelRow{
			ClusterID:             c.ClusterID,
			StyleClassification:   s.StyleClass,
			CapacityTier:          s.CapacityTier,
			QualityRating:         c.Rating,
			ProfileTitle:          c.Profile.Title,
			ProfileWho:            c.Profile.Who,
			ProfileWhyGrouped:     c.Profile.WhyGrouped,
			ProfileBusinessValue:  c.Profile.BusinessValue,
			ProfileActions:        c.Profile.Actions,
			ProfileSuccessMetrics: c.Profile.SuccessMetrics,
			Size:                  s.MemberCount,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ClusterID < rows[j].ClusterID })
	return rows
}

// BuildRecommendations converts a Consolidator result into write-ready
// rows, sorted by (store_id, spu_id) to match spec.md §3's fingerprint
// ordering.
func BuildRecommendations(recs []domain.Recommendation) []RecommendationRow {
	rows := make([]RecommendationRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, RecommendationRow{
			Fingerprint:     r.Fingerprint,
			StoreID:         r.Fingerprint.StoreID,
			SPUID:           r.Fingerprint.SPUID,
			Category:        r.Category,
			Subcategory:     r.Subcategory,
			RuleIDs:         r.RuleIDs,
			CurrentQty:      r.CurrentQty,
			TargetQty:       r.TargetQty,
			DeltaQty:        r.DeltaQty,
			InvestmentDelta: r.InvestmentDelta,
			ExpectedBenefit: r.ExpectedBenefit,
			Confidence:      r.Confidence,
			Rationale:       r.Rationale,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StoreID != rows[j].StoreID {
			return rows[i].StoreID < rows[j].StoreID
		}
		return rows[i].SPUID < rows[j].SPUID
	})
	return rows
}

// BuildAllocatedStoreRecommendations flattens one or more Allocator
// GroupResults into per-store rows carrying the weighting detail.
func BuildAllocatedStoreRecommendations(results []allocate.GroupResult) []AllocatedStoreRecommendationRow {
	var rows []AllocatedStoreRecommendationRow
	for _, res := range results {
		for _, al := range res.Allocations {
			rows = append(rows, AllocatedStoreRecommendationRow{
				RecommendationRow: RecommendationRow{
					Fingerprint:     domain.Fingerprint{StoreID: al.StoreID, SPUID: al.Subcategory},
					StoreID:         al.StoreID,
					Category:        al.Category,
					Subcategory:     al.Subcategory,
					RuleIDs:         al.RuleIDs,
					DeltaQty:        al.DeltaQtyStore,
					Confidence:      al.Confidence,
					Rationale:       al.Rationale,
				},
				CompositeWeight: al.CompositeWeight,
				Cap:             al.Cap,
				GroupKey:        res.GroupKey,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].GroupKey != rows[j].GroupKey {
			return rows[i].GroupKey < rows[j].GroupKey
		}
		return rows[i].StoreID < rows[j].StoreID
	})
	return rows
}

// BuildReconciliationReport summarizes each Allocator GroupResult's
// accounting row.
func BuildReconciliationReport(results []allocate.GroupResult) []ReconciliationReportRow {
	rows := make([]ReconciliationReportRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, ReconciliationReportRow{
			GroupKey:          res.GroupKey,
			ExpectedDeltaQty:  res.ExpectedDeltaQty,
			AllocatedDeltaQty: res.AllocatedDeltaQty,
			Residual:          res.Residual,
			StoresAtCap:       res.StoresAtCap,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].GroupKey < rows[j].GroupKey })
	return rows
}

// BuildRejectionSummary is a convenience passthrough for a
// consolidate.Result's rejected rows, kept here so callers building a
// full write batch don't need to import pkg/consolidate's error type
// directly.
func BuildRejectionSummary(res consolidate.Result) []string {
	msgs := make([]string, 0, len(res.Rejected))
	for _, r := range res.Rejected {
		msgs = append(msgs, r.Error())
	}
	return msgs
}
