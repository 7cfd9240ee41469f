// Package outputs defines the five append-only row contracts spec.md §6
// names (ClusterAssignments, ClusterLabels, Recommendations,
// AllocatedStoreRecommendations, ReconciliationReport) and the Sink
// interface an external writer implements. File-format I/O is out of
// scope here — this package only builds the in-memory rows and hands
// them to whatever Sink the caller wired in, the same split the
// teacher's applier.Applier draws between computing desired state and
// an injected client applying it.
package outputs

import "retail-assortment-optimizer/pkg/domain"

// ClusterAssignmentRow is one store's membership row.
type ClusterAssignmentRow struct {
	StoreID         string
	ClusterID       int
	TemperatureBand domain.TemperatureBand
	Silhouette      float64
	OperationalTag  string
}

// ClusterLabelRow is one cluster's classification and plain-language
// profile, flattened for an external writer.
type ClusterLabelRow struct {
	ClusterID            int
	StyleClassification  domain.StyleClassification
	CapacityTier         domain.CapacityTier
	QualityRating        domain.QualityRating
	ProfileTitle         string
	ProfileWho           string
	ProfileWhyGrouped    string
	ProfileBusinessValue string
	ProfileActions       []string
	ProfileSuccessMetrics []string
	Size                 int
}

// RecommendationRow is one consolidated, sanity-capped recommendation.
type RecommendationRow struct {
	Fingerprint     domain.Fingerprint
	StoreID         string
	SPUID           string
	Category        string
	Subcategory     string
	RuleIDs         []domain.RuleID
	CurrentQty      int
	TargetQty       int
	DeltaQty        int
	InvestmentDelta float64
	ExpectedBenefit float64
	Confidence      float64
	Rationale       string
}

// AllocatedStoreRecommendationRow is a RecommendationRow enriched with
// the allocator's per-store weighting detail, for group-level rows that
// passed through the Allocator rather than arriving pre-decided at
// store granularity.
type AllocatedStoreRecommendationRow struct {
	RecommendationRow
	SalesShareWeight       float64
	CapacityHeadroomWeight float64
	SuitabilityWeight      float64
	CompositeWeight        float64
	Cap                    int
	GroupKey               string
}

// ReconciliationReportRow is one group's allocation accounting: the
// quantities spec.md §4.5's reconciliation law must sum correctly.
type ReconciliationReportRow struct {
	GroupKey          string
	ExpectedDeltaQty  int
	AllocatedDeltaQty int
	Residual          int
	StoresAtCap       int
}

// Sink is the external write-destination contract; the pipeline core
// never performs file or network I/O itself, only builds these rows and
// calls a Sink. A no-op or buffering Sink is sufficient for tests.
type Sink interface {
	WriteClusterAssignments([]ClusterAssignmentRow) error
	WriteClusterLabels([]ClusterLabelRow) error
	WriteRecommendations([]RecommendationRow) error
	WriteAllocatedStoreRecommendations([]AllocatedStoreRecommendationRow) error
	WriteReconciliationReport([]ReconciliationReportRow) error
}
