// Package policy is the optional operator-override layer sitting in
// front of the universal sanity constraints: a YAML-defined,
// expr-lang-compiled, priority-ordered rule set gating each
// Recommendation before it reaches the consolidator. Adapted from the
// teacher's workload-scaling policy engine (pkg/policy/engine.go); the
// condition language and caching are unchanged, only the evaluation
// environment and action set moved from Kubernetes resource tuning to
// retail recommendation gating. With no policy file loaded the engine
// is a no-op: every recommendation is allowed.
package policy

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v2"

	"retail-assortment-optimizer/pkg/logger"
)

// Engine evaluates a loaded PolicySet against recommendations.
type Engine struct {
	policies         PolicySet
	compiledPrograms map[string]*vm.Program
	mu               sync.RWMutex
	log              *logger.Logger
}

// NewEngine returns an engine with no policies loaded — Evaluate will
// allow everything until LoadPolicies or LoadPoliciesFromBytes is called.
func NewEngine() *Engine {
	return &Engine{
		policies:         PolicySet{DefaultAction: ActionAllow},
		compiledPrograms: make(map[string]*vm.Program),
		log:              logger.WithComponent("policy"),
	}
}

// LoadPolicies reads and validates a PolicySet from a YAML file.
func (e *Engine) LoadPolicies(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("policy: failed to read %s: %w", filepath, err)
	}
	return e.LoadPoliciesFromBytes(data)
}

// LoadPoliciesFromBytes reads and validates a PolicySet from YAML bytes.
func (e *Engine) LoadPoliciesFromBytes(data []byte) error {
	var set PolicySet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("policy: failed to unmarshal: %w", err)
	}
	if set.DefaultAction == "" {
		set.DefaultAction = ActionAllow
	}

	for i, p := range set.Policies {
		if p.Name == "" {
			return fmt.Errorf("policy: policy at index %d has no name", i)
		}
		if p.Condition == "" {
			return fmt.Errorf("policy: policy %s has no condition", p.Name)
		}
		if p.Action == "" {
			return fmt.Errorf("policy: policy %s has no action", p.Name)
		}
		if !isValidAction(p.Action) {
			return fmt.Errorf("policy: policy %s has invalid action: %s", p.Name, p.Action)
		}
		if err := validateActionParameters(p); err != nil {
			return fmt.Errorf("policy: policy %s: %w", p.Name, err)
		}
	}

	sort.Slice(set.Policies, func(i, j int) bool {
		return set.Policies[i].Priority > set.Policies[j].Priority
	})

	e.mu.Lock()
	e.policies = set
	e.compiledPrograms = make(map[string]*vm.Program)
	e.mu.Unlock()

	e.log.Infof("loaded %d policies, default action %s", len(set.Policies), set.DefaultAction)
	return nil
}

// Evaluate runs every enabled policy in priority order against ctx and
// returns the first match's decision, or the default action if none match.
func (e *Engine) Evaluate(ctx EvaluationContext) (*PolicyDecision, error) {
	e.mu.RLock()
	policies := e.policies.Policies
	defaultAction := e.policies.DefaultAction
	e.mu.RUnlock()

	for _, p := range policies {
		if !p.Enabled {
			continue
		}
		matches, err := e.evaluateCondition(p.Condition, ctx)
		if err != nil {
			e.log.Warnf("policy %s: condition evaluation failed: %v", p.Name, err)
			continue
		}
		if !matches {
			continue
		}
		decision, err := e.applyAction(p, ctx)
		if err != nil {
			return nil, fmt.Errorf("policy: apply action for %s: %w", p.Name, err)
		}
		decision.MatchedPolicy = p.Name
		decision.Reason = fmt.Sprintf("policy %q matched: %s", p.Name, p.Description)
		return decision, nil
	}

	return &PolicyDecision{Action: defaultAction, Reason: "no policy matched"}, nil
}

func (e *Engine) evaluateCondition(condition string, ctx EvaluationContext) (bool, error) {
	e.mu.RLock()
	program, exists := e.compiledPrograms[condition]
	e.mu.RUnlock()

	env := map[string]interface{}{
		"recommendation": ctx.Recommendation.ToExprEnv(),
		"cluster":        ctx.Cluster.ToExprEnv(),
		"store":          ctx.Store.ToExprEnv(),
		"time":           ctx.Time.ToExprEnv(),
		"custom":         ctx.Custom,
	}

	if !exists {
		compiled, err := expr.Compile(condition, expr.Env(env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compile condition: %w", err)
		}
		e.mu.Lock()
		e.compiledPrograms[condition] = compiled
		e.mu.Unlock()
		program = compiled
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to boolean: %T", output)
	}
	return result, nil
}

func (e *Engine) applyAction(p Policy, ctx EvaluationContext) (*PolicyDecision, error) {
	switch p.Action {
	case ActionAllow:
		return &PolicyDecision{Action: ActionAllow}, nil
	case ActionDeny:
		return &PolicyDecision{Action: ActionDeny}, nil
	case ActionRequireApproval:
		return &PolicyDecision{Action: ActionRequireApproval}, nil
	case ActionCapInvestment:
		cap, err := parseFloatParam(p.Parameters, "max_investment")
		if err != nil {
			return nil, err
		}
		return &PolicyDecision{Action: ActionCapInvestment, CapInvestment: &cap}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", p.Action)
	}
}

// GetPolicies returns the currently loaded policies.
func (e *Engine) GetPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policies.Policies
}

// GetDefaultAction returns the fallback action used when no policy matches.
func (e *Engine) GetDefaultAction() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policies.DefaultAction
}

// ClearCache clears the compiled-expression cache.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledPrograms = make(map[string]*vm.Program)
}

func parseFloatParam(params map[string]string, key string) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing parameter %s", key)
	}
	var v float64
	_, err := fmt.Sscanf(raw, "%g", &v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}
