// Package errs defines the error taxonomy shared by every pipeline
// component (spec.md §7). Each kind is a distinct exported type
// implementing PipelineError so the orchestration shell can decide
// "abort the run" vs "record and continue" without string matching.
package errs

import "fmt"

// PipelineError is implemented by every error kind in this package.
type PipelineError interface {
	error
	Component() string
	Fatal() bool
}

// InputError is malformed or missing required column data. Fatal for the
// owning component.
type InputError struct {
	Comp   string
	Detail string
}

func (e *InputError) Error() string    { return fmt.Sprintf("%s: input error: %s", e.Comp, e.Detail) }
func (e *InputError) Component() string { return e.Comp }
func (e *InputError) Fatal() bool      { return true }

// InsufficientDataError reports an entity (store, cluster) dropped for lack
// of records. Not fatal unless the owning component's dropout rate exceeds
// its configured limit.
type InsufficientDataError struct {
	Comp     string
	EntityID string
	Detail   string
	IsFatal  bool
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data for %s: %s", e.Comp, e.EntityID, e.Detail)
}
func (e *InsufficientDataError) Component() string { return e.Comp }
func (e *InsufficientDataError) Fatal() bool        { return e.IsFatal }

// ClusteringQualityError is raised when post-validate checks fail. Always
// fatal: every downstream component depends on clusters.
type ClusteringQualityError struct {
	Detail string
}

func (e *ClusteringQualityError) Error() string {
	return fmt.Sprintf("clustering: quality validation failed: %s", e.Detail)
}
func (e *ClusteringQualityError) Component() string { return "clustering" }
func (e *ClusteringQualityError) Fatal() bool        { return true }

// RuleInputError means a rule's required feature is absent; that rule is
// skipped, others continue. Never fatal.
type RuleInputError struct {
	RuleID string
	Detail string
}

func (e *RuleInputError) Error() string {
	return fmt.Sprintf("rule %s: input error, skipping: %s", e.RuleID, e.Detail)
}
func (e *RuleInputError) Component() string { return "rules/" + e.RuleID }
func (e *RuleInputError) Fatal() bool        { return false }

// ValidationError means consolidation sanity caps or the sell-through gate
// rejected a recommendation; it is dropped and logged. Never fatal.
type ValidationError struct {
	StoreID   string
	SPUID     string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("consolidate: rejected (%s,%s): violates %s", e.StoreID, e.SPUID, e.Constraint)
}
func (e *ValidationError) Component() string { return "consolidate" }
func (e *ValidationError) Fatal() bool        { return false }

// ReconciliationError means the allocator residual was nonzero after
// exhausting caps. Reported as unallocatable_units, never raised as a
// fatal error — it implements PipelineError for uniformity but Fatal is
// always false.
type ReconciliationError struct {
	GroupKey string
	Residual int
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("allocate: group %s has %d unallocatable units", e.GroupKey, e.Residual)
}
func (e *ReconciliationError) Component() string { return "allocate" }
func (e *ReconciliationError) Fatal() bool        { return false }
