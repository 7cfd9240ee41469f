// Package consolidate implements the Consolidator half of Component C5:
// it merges the Rule Engine's six independent recommendation streams
// into one action plan. Three steps, each grounded in spec.md §4.5:
// fingerprint dedup (keep the highest confidence×|benefit| candidate,
// union its triggering rule_ids), the universal sanity caps reused from
// pkg/rules on the now-merged set, and a per-store blackout gate
// adapted from the teacher's scheduler.BlackoutChecker.
package consolidate

import (
	"math"
	"sort"
	"time"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
	"retail-assortment-optimizer/pkg/errs"
	"retail-assortment-optimizer/pkg/logger"
	"retail-assortment-optimizer/pkg/rules"
	"retail-assortment-optimizer/pkg/scheduler"
)

// Consolidator merges a Rule Engine run's output into one deduplicated,
// sanity-capped, blackout-aware action plan.
type Consolidator struct {
	sanity  config.SanityConfig
	st      config.SellThroughConfig
	roleOf  func(spuID string) (domain.SPURole, bool)
	log     *logger.Logger
	blkChkr *scheduler.BlackoutChecker
}

// New returns a Consolidator. roleOf resolves a SPU's role classification
// for the Sell-Through Validator, the same lookup RuleContext.SPURole
// provides.
func New(sanity config.SanityConfig, st config.SellThroughConfig, roleOf func(spuID string) (domain.SPURole, bool)) *Consolidator {
	return &Consolidator{
		sanity:  sanity,
		st:      st,
		roleOf:  roleOf,
		log:     logger.WithComponent("consolidate"),
		blkChkr: scheduler.NewBlackoutChecker(),
	}
}

// Result is one consolidation run's outcome.
type Result struct {
	Recommendations []domain.Recommendation
	Rejected        []*errs.ValidationError
	DedupedCount    int // how many input rows were absorbed into another row's rule_ids
}

// Run merges recs (typically the Rule Engine's RunAll output), applies
// the universal sanity caps across the merged set, and drops any
// recommendation targeting a store currently inside one of its blackout
// windows. storeBlackouts maps a store_id to its blackout windows; a
// wildcard entry keyed "*" applies to every store.
func (c *Consolidator) Run(recs []domain.Recommendation, storeBlackouts map[string][]scheduler.BlackoutWindow, now time.Time) Result {
	deduped, dedupedCount := dedupeByFingerprint(recs)

	var afterBlackout []domain.Recommendation
	var rejected []*errs.ValidationError
	for _, r := range deduped {
		windows := storeBlackouts[r.Fingerprint.StoreID]
		windows = append(windows, storeBlackouts["*"]...)
		if len(windows) > 0 && !c.blkChkr.IsRunAllowed(windows, now) {
			rejected = append(rejected, &errs.ValidationError{
				StoreID: r.Fingerprint.StoreID, SPUID: r.Fingerprint.SPUID, Constraint: "blackout_window",
			})
			continue
		}
		afterBlackout = append(afterBlackout, r)
	}

	kept, capRejections := rules.ApplySanity(afterBlackout, c.roleOf, c.sanity, c.st)
	rejected = append(rejected, capRejections...)

	sort.SliceStable(rejected, func(i, j int) bool {
		if rejected[i].StoreID != rejected[j].StoreID {
			return rejected[i].StoreID < rejected[j].StoreID
		}
		return rejected[i].SPUID < rejected[j].SPUID
	})

	c.log.Infof("consolidation: %d input rows, %d deduped away, %d rejected, %d kept",
		len(recs), dedupedCount, len(rejected), len(kept))

	return Result{Recommendations: kept, Rejected: rejected, DedupedCount: dedupedCount}
}

// dedupeByFingerprint groups recs by (store_id, spu_id), keeping the
// candidate with the highest confidence×|expected_benefit| per spec.md
// §4.5 and unioning every group member's rule_ids into the survivor's
// Rationale credit line — this is also spec.md's "conflict resolution"
// step: a +x recommendation from one rule and a −y from another are
// never summed, only the higher-scoring signed value survives.
func dedupeByFingerprint(recs []domain.Recommendation) ([]domain.Recommendation, int) {
	groups := make(map[domain.Fingerprint][]domain.Recommendation)
	var order []domain.Fingerprint
	for _, r := range recs {
		if _, ok := groups[r.Fingerprint]; !ok {
			order = append(order, r.Fingerprint)
		}
		groups[r.Fingerprint] = append(groups[r.Fingerprint], r)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].StoreID != order[j].StoreID {
			return order[i].StoreID < order[j].StoreID
		}
		return order[i].SPUID < order[j].SPUID
	})

	var out []domain.Recommendation
	dedupedAway := 0
	for _, fp := range order {
		group := groups[fp]
		winner := pickWinner(group)

		ruleSet := make(map[domain.RuleID]bool)
		for _, g := range group {
			for _, id := range g.RuleIDs {
				ruleSet[id] = true
			}
		}
		var unioned []domain.RuleID
		for id := range ruleSet {
			unioned = append(unioned, id)
		}
		sort.Slice(unioned, func(i, j int) bool { return unioned[i] < unioned[j] })
		winner.RuleIDs = unioned

		dedupedAway += len(group) - 1
		out = append(out, winner)
	}
	return out, dedupedAway
}

// pickWinner returns the group member with the highest confidence×|benefit|
// score, breaking ties by the lexicographically smallest primary rule_id
// so repeated runs on identical input are byte-identical.
func pickWinner(group []domain.Recommendation) domain.Recommendation {
	best := group[0]
	bestScore := dedupScore(best)
	for _, candidate := range group[1:] {
		score := dedupScore(candidate)
		if score > bestScore || (score == bestScore && primaryRuleIDOf(candidate) < primaryRuleIDOf(best)) {
			best, bestScore = candidate, score
		}
	}
	return best
}

func dedupScore(r domain.Recommendation) float64 {
	return r.Confidence * math.Abs(r.ExpectedBenefit)
}

func primaryRuleIDOf(r domain.Recommendation) domain.RuleID {
	if len(r.RuleIDs) == 0 {
		return ""
	}
	return r.RuleIDs[0]
}
