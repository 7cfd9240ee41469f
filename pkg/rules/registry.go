package rules

import (
	"context"
	"errors"
	"sort"
	"sync"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
)

// Func is the uniform signature every business rule implements,
// generalized from the teacher's single-method anomaly.Detector
// interface (Name() DetectionMethod; Detect(data []float64)
// *DetectionResult) to a rule that reads a shared RuleContext and
// produces a Recommendation stream.
type Func func(ctx *RuleContext, cfg config.RuleConfig) ([]domain.Recommendation, error)

type registryEntry struct {
	id  domain.RuleID
	run Func
}

// Registry holds the six registered business rules.
type Registry struct {
	entries []registryEntry
	log     *logger.Logger
}

// NewRegistry returns a Registry with all six business rules registered
// in the order spec.md §4.4 presents them.
func NewRegistry() *Registry {
	r := &Registry{log: logger.WithComponent("rules")}
	r.Register(domain.RuleMissingSPU, RunR7)
	r.Register(domain.RuleImbalancedAllocation, RunR8)
	r.Register(domain.RuleBelowMinimum, RunR9)
	r.Register(domain.RuleSmartOvercapacity, RunR10)
	r.Register(domain.RuleMissedSales, RunR11)
	r.Register(domain.RuleSalesPerformanceGap, RunR12)
	return r
}

// Register adds (or, for a repeated id, appends another run of) a rule.
func (r *Registry) Register(id domain.RuleID, fn Func) {
	r.entries = append(r.entries, registryEntry{id: id, run: fn})
}

// Outcome is one rule's result: a batch of recommendations, or a
// skip reason when the rule raised a RuleInputError. Recommendations
// already reflects that rule's own pass through ApplySanity (spec.md
// §4.4); Rejected holds what that pass dropped.
type Outcome struct {
	RuleID          domain.RuleID
	Recommendations []domain.Recommendation
	Rejected        []*errs.ValidationError
	Err             error
}

// RunAll evaluates every registered rule concurrently — spec.md §5
// permits per-rule parallelism — accumulating each rule's output into
// its own slice and merging serially once every goroutine finishes, so
// no rule observes another's in-progress results. A rule that raises
// RuleInputError is skipped and logged; the others still run to
// completion (spec.md §4.4's per-rule failure model). Each rule's raw
// output is passed through ApplySanity before it's eligible to merge —
// the per-rule gate spec.md §4.4 and §4.5 both describe, distinct from
// the Consolidator's later pass over the deduped, merged set.
func (r *Registry) RunAll(ctx context.Context, ruleCtx *RuleContext, cfg config.RuleConfig,
	roleOf func(spuID string) (domain.SPURole, bool), sanity config.SanityConfig, st config.SellThroughConfig) ([]domain.Recommendation, []Outcome) {
	outcomes := make([]Outcome, len(r.entries))
	var wg sync.WaitGroup
	for i, e := range r.entries {
		wg.Add(1)
		go func(i int, e registryEntry) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				outcomes[i] = Outcome{RuleID: e.id, Err: ctx.Err()}
				return
			default:
			}

			recs, err := e.run(ruleCtx, cfg)
			if err != nil {
				var rie *errs.RuleInputError
				if errors.As(err, &rie) {
					r.log.Warnf("rule %s skipped: %v", e.id, err)
				} else {
					r.log.Errorf("rule %s failed: %v", e.id, err)
				}
				outcomes[i] = Outcome{RuleID: e.id, Err: err}
				return
			}
			passed, rejected := ApplySanity(recs, roleOf, sanity, st)
			outcomes[i] = Outcome{RuleID: e.id, Recommendations: passed, Rejected: rejected}
		}(i, e)
	}
	wg.Wait()

	var merged []domain.Recommendation
	for _, o := range outcomes {
		if o.Err == nil {
			merged = append(merged, o.Recommendations...)
		}
	}

	// spec.md §5: recommendations stable-sorted by (rule_id, store_id,
	// spu_id) before emission, so identical input reproduces identical
	// output across runs.
	sort.SliceStable(merged, func(i, j int) bool {
		ri, rj := merged[i], merged[j]
		riID, rjID := primaryRuleID(ri), primaryRuleID(rj)
		if riID != rjID {
			return riID < rjID
		}
		if ri.Fingerprint.StoreID != rj.Fingerprint.StoreID {
			return ri.Fingerprint.StoreID < rj.Fingerprint.StoreID
		}
		return ri.Fingerprint.SPUID < rj.Fingerprint.SPUID
	})
	return merged, outcomes
}

func primaryRuleID(r domain.Recommendation) domain.RuleID {
	if len(r.RuleIDs) == 0 {
		return ""
	}
	return r.RuleIDs[0]
}
