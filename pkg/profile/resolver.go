package profile

import (
	"fmt"

	"retail-assortment-optimizer/pkg/domain"
)

// Resolver resolves a domain.Profile from a TemplateKey plus the numeric
// particulars of one cluster. Adapted from the teacher's Resolver
// (pkg/profile/resolver.go), which resolved an OptimizerConfig's named
// profile plus ProfileOverrides into one ResolvedSettings struct; here
// the "named profile" is the (style, capacity) TemplateKey and the
// "overrides" are the cluster's own fashion/basic ratio, member count,
// and capacity instead of operator-supplied spec fields.
type Resolver struct {
	manager *Manager
}

// NewResolver returns a Resolver seeded with the default template set.
func NewResolver() *Resolver {
	return &Resolver{manager: NewManager()}
}

// NewResolverWithManager returns a Resolver over a caller-supplied Manager,
// e.g. one with operator-registered templates added.
func NewResolverWithManager(m *Manager) *Resolver {
	return &Resolver{manager: m}
}

// ClusterStatsInput is the numeric data a resolved profile fills into its
// template's static copy.
type ClusterStatsInput struct {
	Style        domain.StyleClassification
	Capacity     domain.CapacityTier
	MemberCount  int
	FashionRatio float64
	BasicRatio   float64
	AvgCapacity  float64
}

// Resolve looks up the template for (stats.Style, stats.Capacity) and fills
// in the cluster's particulars, producing the domain.Profile spec.md §4.3
// requires on every Cluster. If no template is registered for the exact
// key it falls back to (Balanced, Medium) rather than leave a cluster
// without a profile.
func (r *Resolver) Resolve(stats ClusterStatsInput) (domain.Profile, error) {
	key := TemplateKey{Style: stats.Style, Capacity: stats.Capacity}
	tmpl, err := r.manager.GetTemplate(key)
	if err != nil {
		tmpl, err = r.manager.GetTemplate(TemplateKey{Style: domain.StyleBalanced, Capacity: domain.CapacityTierMedium})
		if err != nil {
			return domain.Profile{}, fmt.Errorf("profile: no fallback template registered: %w", err)
		}
	}

	who := fmt.Sprintf("%s (%d stores, avg %.0f-unit capacity)", tmpl.Who, stats.MemberCount, stats.AvgCapacity)
	whyGrouped := fmt.Sprintf("%s (fashion ratio %.0f%%, basic ratio %.0f%%)",
		tmpl.WhyGrouped, stats.FashionRatio*100, stats.BasicRatio*100)

	return domain.Profile{
		Title:          tmpl.Title,
		Who:            who,
		WhyGrouped:     whyGrouped,
		BusinessValue:  tmpl.BusinessValue,
		Actions:        append([]string(nil), tmpl.Actions...),
		SuccessMetrics: append([]string(nil), tmpl.SuccessMetrics...),
	}, nil
}
