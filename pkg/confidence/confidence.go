// Package confidence scores how much a Recommendation should be trusted,
// adapted from the teacher's multi-factor weighted scoring
// (pkg/recommendation/confidence.go). The teacher weighed sample count,
// data recency/coverage, and consistency on a 0-100 scale; here the
// factors become cluster member count, Z-score magnitude, opportunity
// coverage, and rule agreement, combined the same way — a weighted sum,
// clamped — but on the 0-1 scale domain.ConfidenceBreakdown uses.
package confidence

import (
	"math"

	"retail-assortment-optimizer/pkg/domain"
)

// Config holds the scaling points for each factor and the weights used
// to combine them. Weights should sum to 1.0.
type Config struct {
	// IdealClusterSize is the member count at which ClusterSizeScore
	// saturates at 1.0.
	IdealClusterSize int
	// IdealZMagnitude is the |Z| at which ZMagnitudeScore saturates at 1.0.
	IdealZMagnitude float64
	// IdealCoverageRatio is the opportunity/threshold ratio at which
	// CoverageScore saturates at 1.0.
	IdealCoverageRatio float64

	WeightClusterSize   float64
	WeightZMagnitude    float64
	WeightCoverage      float64
	WeightRuleAgreement float64
}

// DefaultConfig returns sensible scaling points and weights.
func DefaultConfig() Config {
	return Config{
		IdealClusterSize:   50,
		IdealZMagnitude:    6.0,
		IdealCoverageRatio: 2.0,

		WeightClusterSize:   0.25,
		WeightZMagnitude:    0.25,
		WeightCoverage:      0.25,
		WeightRuleAgreement: 0.25,
	}
}

// Calculator produces domain.ConfidenceBreakdown values for a
// Recommendation's supporting evidence.
type Calculator struct {
	config Config
}

// NewCalculator returns a Calculator using DefaultConfig.
func NewCalculator() *Calculator {
	return &Calculator{config: DefaultConfig()}
}

// NewCalculatorWithConfig returns a Calculator using a caller-supplied Config.
func NewCalculatorWithConfig(cfg Config) *Calculator {
	return &Calculator{config: cfg}
}

// Evidence is the raw signal a rule gathers about one recommendation,
// fed into Calculate.
type Evidence struct {
	// ClusterSize is the number of stores in the cluster backing this
	// recommendation.
	ClusterSize int
	// ZMagnitude is the absolute Z-score (or IQR multiple) that
	// triggered the rule, 0 if the rule isn't Z-based.
	ZMagnitude float64
	// OpportunityRatio is how far past its minimum-opportunity
	// threshold this recommendation clears (opportunity / threshold).
	// 1.0 means it exactly clears the bar.
	OpportunityRatio float64
	// RuleCount is how many distinct rules independently recommend
	// this (store, SPU) fingerprint change, from consolidation dedup.
	RuleCount int
}

// Calculate combines the four factors into a domain.ConfidenceBreakdown.
func (c *Calculator) Calculate(e Evidence) domain.ConfidenceBreakdown {
	b := domain.ConfidenceBreakdown{
		ClusterSizeScore:   c.clusterSizeScore(e.ClusterSize),
		ZMagnitudeScore:    c.zMagnitudeScore(e.ZMagnitude),
		CoverageScore:      c.coverageScore(e.OpportunityRatio),
		RuleAgreementScore: c.ruleAgreementScore(e.RuleCount),
	}
	b.Overall = clamp01(
		c.config.WeightClusterSize*b.ClusterSizeScore +
			c.config.WeightZMagnitude*b.ZMagnitudeScore +
			c.config.WeightCoverage*b.CoverageScore +
			c.config.WeightRuleAgreement*b.RuleAgreementScore,
	)
	return b
}

// clusterSizeScore rewards larger clusters: more peer stores means the
// cluster statistics backing a rule are more stable.
func (c *Calculator) clusterSizeScore(size int) float64 {
	if size <= 0 {
		return 0
	}
	ratio := float64(size) / float64(c.config.IdealClusterSize)
	return clamp01(ratio)
}

// zMagnitudeScore rewards a larger statistical departure from the peer
// mean: the further past the rule's own threshold, the more confident
// the signal.
func (c *Calculator) zMagnitudeScore(z float64) float64 {
	if z <= 0 {
		return 0.5 // rule isn't Z-based; neutral score
	}
	ratio := math.Abs(z) / c.config.IdealZMagnitude
	return clamp01(ratio)
}

// coverageScore rewards opportunities that clear their minimum
// threshold by a wide margin over ones that barely qualify.
func (c *Calculator) coverageScore(ratio float64) float64 {
	if ratio <= 0 {
		return 0
	}
	return clamp01(ratio / c.config.IdealCoverageRatio)
}

// ruleAgreementScore rewards recommendations multiple rules agree on
// independently.
func (c *Calculator) ruleAgreementScore(ruleCount int) float64 {
	if ruleCount <= 1 {
		return 0.5
	}
	if ruleCount >= 3 {
		return 1.0
	}
	return 0.75 // exactly two rules agree
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
