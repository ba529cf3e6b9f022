/*
store.go - Persistence interfaces for plan, rule-set and customer documents

PURPOSE:
  Defines the interface between the engine and the document store.
  Different implementations can use SQLite or in-memory storage; the
  engine only sees whole documents.

DOCUMENT MODEL:
  planTaskRules/{packageKey} -> RuleSet  (sections + ordered rules)
  plans/{customerId}         -> Plan     (sections of task instances)
  customers/{customerId}     -> Customer (read-only selection input)

WRITE GRANULARITY:
  A customer's plan update is exactly one mutation no matter how many of
  its tasks changed; the sections are rewritten as one field. The batch
  ceiling therefore bounds customers-per-commit, not tasks-per-commit.

CONCURRENCY:
  Implementations are internally thread-safe, but the engine performs no
  optimistic-concurrency check on plan documents: last writer wins.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - plan/store/memory.go:   In-memory for testing/dev
*/
package plan

import "context"

// =============================================================================
// RULE SET STORE
// =============================================================================

type RuleSetStore interface {
	// GetRuleSet fetches the rule set for a package key.
	// Returns ErrRuleSetNotFound when no document exists.
	GetRuleSet(ctx context.Context, pkg PackageKey) (*RuleSet, error)

	// PutRuleSet replaces the rule set document for a package key.
	PutRuleSet(ctx context.Context, pkg PackageKey, rs RuleSet) error
}

// =============================================================================
// PLAN STORE
// =============================================================================

type PlanStore interface {
	// GetPlan fetches a customer's plan.
	// Returns ErrPlanNotFound when the customer has no plan document yet.
	GetPlan(ctx context.Context, id CustomerID) (*Plan, error)

	// PutPlan replaces a customer's plan document.
	PutPlan(ctx context.Context, id CustomerID, p Plan) error
}

// =============================================================================
// CUSTOMER STORE - Read-only, owned by customer management
// =============================================================================

// CustomerFilter narrows the tenant population before propagation.
type CustomerFilter struct {
	Type        CustomerType
	PackageType PackageKey
	ActiveOnly  bool
}

type CustomerStore interface {
	// GetCustomer fetches a single customer record.
	// Returns ErrCustomerNotFound for unknown ids.
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)

	// ListCustomers returns customers matching the filter, ordered by id.
	ListCustomers(ctx context.Context, f CustomerFilter) ([]Customer, error)
}

// =============================================================================
// BATCH WRITER
// =============================================================================

// PlanMutation is one staged plan rewrite for one customer.
type PlanMutation struct {
	CustomerID CustomerID
	Plan       Plan
}

// BatchWriter commits a set of plan mutations atomically. Callers must
// keep each batch at or under BatchCeiling; chunking is the
// ChunkedWriter's job, not the store's.
type BatchWriter interface {
	CommitPlans(ctx context.Context, muts []PlanMutation) error
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store bundles everything the propagation pipelines need.
type Store interface {
	RuleSetStore
	PlanStore
	CustomerStore
	BatchWriter
}
