// Package pipeline is the Orchestration Shell: one Orchestrator instance
// wires together every core component (Feature Assembly, Clustering
// Engine, Cluster Profiler, Rule Engine, Consolidator, Allocator) plus
// the ambient services (logger, metrics, an optional policy override
// layer) into a single batch run. Grounded in the teacher's
// pkg/controller/reconciler.go: a Reconciler field-holds one instance of
// every collaborator and its Reconcile method drives them in sequence
// with a stage that can legitimately skip (dry-run/maintenance-window)
// without aborting the run — Run below walks the same dependency order
// spec.md §2 fixes (Feature Assembly -> Clustering -> Profiler -> Rule
// Engine -> Consolidator -> Allocator) rather than reconciling a
// Kubernetes workload.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"retail-assortment-optimizer/pkg/allocate"
	"retail-assortment-optimizer/pkg/clustering"
	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/consolidate"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/features"
	"retail-assortment-optimizer/pkg/logger"
	"retail-assortment-optimizer/pkg/metrics"
	"retail-assortment-optimizer/pkg/outputs"
	"retail-assortment-optimizer/pkg/policy"
	"retail-assortment-optimizer/pkg/profiler"
	"retail-assortment-optimizer/pkg/rules"
	"retail-assortment-optimizer/pkg/scheduler"
)

// Orchestrator holds one instance of each core component, constructed
// once per process and reused across scheduled runs.
type Orchestrator struct {
	cfg        *config.Pipeline
	log        *logger.Logger
	metrics    *metrics.PrometheusExporter
	profiler   *profiler.Profiler
	ruleReg    *rules.Registry
	allocator  *allocate.Allocator
	policyEng  *policy.Engine // nil if no override policies were loaded
	roleOf     func(spuID string) (domain.SPURole, bool)
}

// New wires one Orchestrator from cfg. roleOf resolves a SPU's role
// classification; the caller typically closes over the same SPU lookup
// table it builds for Feature Assembly.
func New(cfg *config.Pipeline, roleOf func(spuID string) (domain.SPURole, bool)) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		log:       logger.WithComponent("pipeline"),
		metrics:   metrics.NewPrometheusExporter("assortment_optimizer"),
		profiler:  profiler.New(),
		ruleReg:   rules.NewRegistry(),
		allocator: allocate.New(cfg.Allocator),
		roleOf:    roleOf,
	}
}

// WithPolicyEngine attaches an optional operator-override policy layer,
// evaluated per recommendation between consolidation and output.
func (o *Orchestrator) WithPolicyEngine(e *policy.Engine) *Orchestrator {
	o.policyEng = e
	return o
}

// Input bundles one run's raw collaborator data. API download, caching,
// and file I/O happen upstream of this struct's construction (spec.md
// §1's out-of-scope list).
type Input struct {
	Stores         []domain.Store
	SPUs           map[string]domain.SPU
	Sales          []domain.SalesFact
	WeatherSamples []domain.WeatherSample
	Elevations     map[string]float64

	// Groups carries any recommendations that arrive pre-aggregated at
	// the cluster-category-subcategory level rather than per-store; the
	// Rule Engine's own six rules already emit store-level rows, so this
	// is populated only when an upstream collaborator supplies group
	// rows the Allocator must still decompose.
	Groups []domain.GroupRecommendation

	// StoreBlackouts maps a store_id (or "*" for every store) to its
	// active blackout windows.
	StoreBlackouts map[string][]scheduler.BlackoutWindow
}

// Result bundles one run's write-ready output rows and bookkeeping.
type Result struct {
	ClusterAssignments []outputs.ClusterAssignmentRow
	ClusterLabels      []outputs.ClusterLabelRow
	Recommendations    []outputs.RecommendationRow
	AllocatedStoreRecs []outputs.AllocatedStoreRecommendationRow
	Reconciliation     []outputs.ReconciliationReportRow

	Clusters              []domain.Cluster
	RecommendationsEmitted int
	UnallocatableUnits     int
	Rejections             []string
	RuleOutcomes           []rules.Outcome
}

// Run executes one full batch pipeline pass. It returns a
// *errs.InputError (fatal) if Feature Assembly can't proceed, and a *errs.ClusteringQualityError
// (fatal) if the Clustering Engine can't reach Validated; a failing
// individual rule is recorded in Result.RuleOutcomes but does not fail
// the run (spec.md §4.4's per-rule failure model).
func (o *Orchestrator) Run(ctx context.Context, in Input) (Result, error) {
	assembled, err := features.AssembleFeatures(ctx, o.log, o.cfg.Features, in.Stores, in.Sales, in.SPUs,
		in.WeatherSamples, in.Elevations, domain.DefaultFeatureGroupWeights())
	if err != nil {
		o.metrics.RecordComponentError("feature-assembly", fmt.Sprintf("%T", err))
		return Result{}, err
	}

	eng := clustering.NewEngine(o.cfg.Clustering, o.log)
	if err := eng.Fit(ctx, assembled.Matrix, in.Stores, assembled.WeatherProfiles); err != nil {
		o.metrics.RecordComponentError("clustering", fmt.Sprintf("%T", err))
		return Result{}, err
	}
	if err := eng.Balance(ctx); err != nil {
		o.metrics.RecordComponentError("clustering", fmt.Sprintf("%T", err))
		return Result{}, err
	}
	if err := eng.Validate(ctx); err != nil {
		o.metrics.RecordComponentError("clustering", fmt.Sprintf("%T", err))
		return Result{}, err
	}
	clusters, err := eng.Clusters()
	if err != nil {
		return Result{}, err
	}
	o.metrics.RecordClustersFormed("current", len(clusters))

	storesByID := make(map[string]domain.Store, len(in.Stores))
	for _, s := range in.Stores {
		storesByID[s.StoreID] = s
	}
	shares := make(map[string]profiler.StoreFashionShare, len(assembled.Shares))
	for id, s := range assembled.Shares {
		shares[id] = profiler.StoreFashionShare{StoreID: s.StoreID, FashionShare: s.FashionShare, BasicShare: s.BasicShare}
	}

	statsByCluster := make(map[int]domain.ClusterStats, len(clusters))
	for i := range clusters {
		stats, err := o.profiler.Profile(&clusters[i], shares, assembled.WeatherProfiles, storesByID)
		if err != nil {
			o.log.Warnf("profiler: cluster %d: %v", clusters[i].ClusterID, err)
			continue
		}
		statsByCluster[clusters[i].ClusterID] = stats
		o.metrics.RecordClusterQuality("current", fmt.Sprintf("%d", clusters[i].ClusterID), clusters[i].Metrics.Silhouette)
		o.metrics.RecordMerchandisingCoherence("current", fmt.Sprintf("%d", clusters[i].ClusterID), clusters[i].Metrics.MerchandisingCoherence)
	}

	spuList := make([]domain.SPU, 0, len(in.SPUs))
	for _, spu := range in.SPUs {
		spuList = append(spuList, spu)
	}
	ruleCtx, err := rules.NewRuleContext(clusters, in.Stores, spuList, in.Sales)
	if err != nil {
		return Result{}, err
	}

	merged, outcomes := o.ruleReg.RunAll(ctx, ruleCtx, o.cfg.Rules, o.roleOf, o.cfg.Sanity, o.cfg.SellThrough)
	for _, oc := range outcomes {
		result := "ok"
		if oc.Err != nil {
			result = "error"
			o.log.Warnf("rule %s failed: %v", oc.RuleID, oc.Err)
			o.metrics.RecordRuleSkip(string(oc.RuleID))
		}
		o.metrics.RecordRuleEvaluation(string(oc.RuleID), result)
		o.metrics.RecordRecommendationsEmitted(string(oc.RuleID), len(oc.Recommendations))
	}

	if o.policyEng != nil {
		merged = o.applyPolicyOverrides(merged)
	}

	cons := consolidate.New(o.cfg.Sanity, o.cfg.SellThrough, o.roleOf)
	consResult := cons.Run(merged, in.StoreBlackouts, time.Now())
	o.metrics.RecordRecommendationsDeduped("current", consResult.DedupedCount)

	salesAmt := salesAmountByStore(in.Sales)
	var allocResults []allocate.GroupResult
	for _, g := range in.Groups {
		band := clusterBand(clusters, g.ClusterID)
		res := o.allocator.AllocateGroup(g, band, storesByID, salesAmt)
		allocResults = append(allocResults, res)
		o.metrics.RecordAllocationResidual("current", res.Residual)
	}

	unallocatable := 0
	for _, r := range allocResults {
		unallocatable += absInt(r.Residual)
	}

	rejections := make([]string, 0, len(consResult.Rejected))
	for _, r := range consResult.Rejected {
		rejections = append(rejections, r.Error())
	}

	return Result{
		ClusterAssignments:     outputs.BuildClusterAssignments(clusters),
		ClusterLabels:          outputs.BuildClusterLabelsFromStats(clusters, statsByCluster),
		Recommendations:        outputs.BuildRecommendations(consResult.Recommendations),
		AllocatedStoreRecs:     outputs.BuildAllocatedStoreRecommendations(allocResults),
		Reconciliation:         outputs.BuildReconciliationReport(allocResults),
		Clusters:               clusters,
		RecommendationsEmitted: len(consResult.Recommendations),
		UnallocatableUnits:     unallocatable,
		Rejections:             rejections,
		RuleOutcomes:           outcomes,
	}, nil
}

// applyPolicyOverrides runs every merged recommendation through the
// optional policy engine, dropping denied rows and capping investment on
// rows the matching policy caps. Requiring approval is treated as allow
// (an operator-facing queue is out of scope here; the decision is
// recorded via a warn log instead of blocking the batch run).
func (o *Orchestrator) applyPolicyOverrides(recs []domain.Recommendation) []domain.Recommendation {
	var kept []domain.Recommendation
	for _, r := range recs {
		ruleIDs := make([]string, len(r.RuleIDs))
		for i, id := range r.RuleIDs {
			ruleIDs[i] = string(id)
		}
		decision, err := o.policyEng.Evaluate(policy.EvaluationContext{
			Recommendation: policy.RecommendationInfo{
				RuleIDs: ruleIDs, Category: r.Category, Subcategory: r.Subcategory,
				DeltaQty: r.DeltaQty, InvestmentDelta: r.InvestmentDelta,
				ExpectedBenefit: r.ExpectedBenefit, Confidence: r.Confidence,
			},
		})
		if err != nil {
			o.log.Warnf("policy evaluation failed for %s/%s: %v", r.Fingerprint.StoreID, r.Fingerprint.SPUID, err)
			kept = append(kept, r)
			continue
		}
		o.metrics.RecordPolicyEvaluation(decision.MatchedPolicy, decision.Action)
		switch decision.Action {
		case policy.ActionDeny:
			o.metrics.RecordPolicyBlockedChange(decision.MatchedPolicy)
			continue
		case policy.ActionCapInvestment:
			if decision.CapInvestment != nil && r.InvestmentDelta > *decision.CapInvestment {
				r.InvestmentDelta = *decision.CapInvestment
			}
		case policy.ActionRequireApproval:
			o.log.Warnf("recommendation %s/%s requires approval under policy %s; emitting as-is", r.Fingerprint.StoreID, r.Fingerprint.SPUID, decision.MatchedPolicy)
		}
		kept = append(kept, r)
	}
	return kept
}

func clusterBand(clusters []domain.Cluster, clusterID int) domain.TemperatureBand {
	for _, c := range clusters {
		if c.ClusterID == clusterID {
			return c.TemperatureBand
		}
	}
	return ""
}

// salesAmountByStore totals each store's observed sales, used as the
// Allocator's sales-share weighting input.
func salesAmountByStore(sales []domain.SalesFact) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range sales {
		out[s.StoreID] += s.SalesAmt
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
