// Package sellthrough implements the Sell-Through Validator: the
// pre-optimization gate every Recommendation must clear before
// emission, estimating post-change sell-through with the role-based
// multipliers spec.md §4.5 defines. There is no teacher analogue for
// this domain calculation; it is shaped like the stateless, pure-method
// calculators elsewhere in this pack (pkg/cost.Economics) rather than
// invented from scratch — same "small struct, pure arithmetic methods"
// convention, new formula.
package sellthrough

import (
	"fmt"

	"retail-assortment-optimizer/pkg/config"
	"retail-assortment-optimizer/pkg/domain"
)

// RoleMidpoint approximates a SPU's current sell-through rate from its
// role classification. The pipeline only retains a SPU's role
// (domain.RoleFromSellThrough already collapsed the raw float into a
// band), so this is the midpoint of that band — a documented stand-in
// used wherever a rule needs a "current sell-through" estimate for a
// SPU it hasn't observed a raw rate for.
func RoleMidpoint(role domain.SPURole) float64 {
	switch role {
	case domain.RoleCore:
		return 0.90
	case domain.RoleSeasonal:
		return 0.60
	case domain.RoleFiller:
		return 0.30
	default:
		return 0.10
	}
}

// validatorBaseline is the Evaluate gate's own "current sell-through"
// estimate for the specific (store, SPU) pairing a rule is proposing a
// change to — deliberately lower than RoleMidpoint's classification-band
// value. A rule only proposes changing a pairing because it underperforms
// its role's typical ceiling, so gating off RoleMidpoint(RoleCore)=0.90
// directly would put the baseline above MaxRisk before any multiplier is
// even applied, making every Core recommendation fail regardless of
// direction. Core is the only band RoleMidpoint and this baseline
// diverge on; see spec.md's open question on the role multipliers being
// uncalibrated heuristics.
func validatorBaseline(role domain.SPURole) float64 {
	switch role {
	case domain.RoleCore:
		return 0.60
	default:
		return RoleMidpoint(role)
	}
}

// roleMultiplier is the predicted-sell-through multiplier for adding one
// more unit of a SPU in the given role, per spec.md §4.5.
func roleMultiplier(role domain.SPURole) float64 {
	switch role {
	case domain.RoleCore:
		return 1.15
	case domain.RoleSeasonal:
		return 1.10
	case domain.RoleFiller:
		return 1.05
	default:
		return 0.95
	}
}

// Validator evaluates predicted sell-through for a proposed quantity
// change against the configured gate.
type Validator struct {
	cfg config.SellThroughConfig
}

// NewValidator returns a Validator gated by cfg.
func NewValidator(cfg config.SellThroughConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Result is one validation outcome.
type Result struct {
	CurrentSellThrough   float64
	PredictedSellThrough float64
	Improvement          float64
	Pass                 bool
	Reason               string
}

// Evaluate estimates post-change sell-through for a deltaQty change to a
// SPU of the given role and checks it against min predicted sell-through,
// min improvement, and max risk. A positive deltaQty is an addition (the
// role multiplier applies directly); a negative deltaQty is a removal
// (the inverse multiplier applies, per spec.md §4.5).
func (v *Validator) Evaluate(role domain.SPURole, deltaQty int) Result {
	current := validatorBaseline(role)
	mult := roleMultiplier(role)
	if deltaQty < 0 {
		mult = 1 / mult
	}
	predicted := current * mult
	improvement := predicted - current

	switch {
	case predicted < v.cfg.MinPredictedSellThrough:
		return Result{current, predicted, improvement, false,
			fmt.Sprintf("predicted sell-through %.2f below floor %.2f", predicted, v.cfg.MinPredictedSellThrough)}
	case improvement < v.cfg.MinImprovement:
		return Result{current, predicted, improvement, false,
			fmt.Sprintf("improvement %.2f below required %.2f", improvement, v.cfg.MinImprovement)}
	case predicted > v.cfg.MaxRisk:
		return Result{current, predicted, improvement, false,
			fmt.Sprintf("predicted sell-through %.2f risks stock-out above %.2f", predicted, v.cfg.MaxRisk)}
	default:
		return Result{current, predicted, improvement, true, "within bounds"}
	}
}
