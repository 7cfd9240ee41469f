package policy

import "time"

// Policy is a single operator-supplied override rule, adapted from the
// teacher's workload-scaling Policy (pkg/policy/types.go): an
// expr-lang condition gates an action, evaluated in priority order.
type Policy struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Condition   string            `json:"condition" yaml:"condition"`
	Action      string            `json:"action" yaml:"action"`
	Parameters  map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Priority    int               `json:"priority,omitempty" yaml:"priority,omitempty"`
	Enabled     bool              `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// PolicySet is a collection of Policies plus the fallback action.
type PolicySet struct {
	Policies      []Policy `json:"policies" yaml:"policies"`
	DefaultAction string   `json:"defaultAction,omitempty" yaml:"defaultAction,omitempty"`
}

// EvaluationContext is everything a policy condition can reference,
// evaluated once per pending Recommendation before the universal
// sanity constraints run.
type EvaluationContext struct {
	Recommendation RecommendationInfo     `json:"recommendation"`
	Cluster        ClusterInfo            `json:"cluster"`
	Store          StoreInfo              `json:"store"`
	Time           TimeInfo               `json:"time"`
	Custom         map[string]interface{} `json:"custom,omitempty"`
}

// RecommendationInfo is the recommendation-scoped fields a condition
// can reference, e.g. `recommendation.deltaQty > 20`.
type RecommendationInfo struct {
	RuleIDs          []string `json:"ruleIds"`
	Category         string   `json:"category"`
	Subcategory      string   `json:"subcategory"`
	DeltaQty         int      `json:"deltaQty"`
	InvestmentDelta  float64  `json:"investmentDelta"`
	ExpectedBenefit  float64  `json:"expectedBenefit"`
	Confidence       float64  `json:"confidence"`
}

// ToExprEnv converts RecommendationInfo to a map for expr evaluation.
func (r RecommendationInfo) ToExprEnv() map[string]interface{} {
	return map[string]interface{}{
		"ruleIds":         r.RuleIDs,
		"category":        r.Category,
		"subcategory":     r.Subcategory,
		"deltaQty":        r.DeltaQty,
		"investmentDelta": r.InvestmentDelta,
		"expectedBenefit": r.ExpectedBenefit,
		"confidence":      r.Confidence,
	}
}

// ClusterInfo is the cluster-scoped fields a condition can reference,
// e.g. `cluster.qualityRating == 'Poor'`.
type ClusterInfo struct {
	ClusterID     string `json:"clusterId"`
	QualityRating string `json:"qualityRating"`
	OperationalTag string `json:"operationalTag"`
}

// ToExprEnv converts ClusterInfo to a map for expr evaluation.
func (c ClusterInfo) ToExprEnv() map[string]interface{} {
	return map[string]interface{}{
		"clusterId":      c.ClusterID,
		"qualityRating":  c.QualityRating,
		"operationalTag": c.OperationalTag,
	}
}

// StoreInfo is the store-scoped fields a condition can reference, e.g.
// `store.style != cluster.operationalTag`.
type StoreInfo struct {
	StoreID             string  `json:"storeId"`
	Style                string  `json:"style"`
	SizeTier             string  `json:"sizeTier"`
	CapacityUtilization  float64 `json:"capacityUtilization"`
}

// ToExprEnv converts StoreInfo to a map for expr evaluation.
func (s StoreInfo) ToExprEnv() map[string]interface{} {
	return map[string]interface{}{
		"storeId":             s.StoreID,
		"style":               s.Style,
		"sizeTier":            s.SizeTier,
		"capacityUtilization": s.CapacityUtilization,
	}
}

// TimeInfo supports schedule-dependent policies, e.g. "skip R10 during
// the first week of a new period."
type TimeInfo struct {
	Now     time.Time `json:"now"`
	Month   int       `json:"month"`
	Weekday int       `json:"weekday"`
}

// ToExprEnv converts TimeInfo to a map for expr evaluation.
func (t TimeInfo) ToExprEnv() map[string]interface{} {
	return map[string]interface{}{
		"now":     t.Now,
		"month":   t.Month,
		"weekday": t.Weekday,
	}
}

// PolicyDecision is the result of evaluating one EvaluationContext.
type PolicyDecision struct {
	Action          string
	Reason          string
	MatchedPolicy   string
	CapInvestment   *float64 // set only when Action == ActionCapInvestment
}

const (
	ActionAllow          = "allow"
	ActionDeny           = "deny"
	ActionRequireApproval = "require-approval"
	ActionCapInvestment  = "cap-investment"
)
