/*
Package propagate implements the operator-facing propagation pipelines.

PURPOSE:
  Wires the pure reconciliation primitives in the plan package into the
  two bulk operations an operator can trigger:
  - ApplyRule: push one edited rule to every matching customer's plan
  - ResyncAll: apply the whole current rule set to every matching
    customer's entire plan

  Both run as an explicit pipeline: select customers -> read plan ->
  merge -> stage mutation -> chunked commit. The HTTP and CLI layers only
  invoke the pipeline and render its result.

EXECUTION MODEL:
  Single-actor, synchronous, sequential over customers. No background
  scheduler, no worker pool, no cancellation beyond context, no retry:
  the first uncaught failure stops the loop, already-committed chunks
  stand, and the operator re-runs the operation (merges are idempotent).

SELECTION:
  The customer filter runs before either path so trial and (for plan
  views) inactive tenants are never mutated. An empty selection is a
  no-op success with a notice, not an error.

SEE ALSO:
  - plan/merge.go, plan/resync.go: The reconciliation primitives
  - plan/batch.go: Chunked commits against the store's batch ceiling
*/
package propagate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftdesk/plan-engine/plan"
)

// Engine runs propagation pipelines against a store.
type Engine struct {
	Store plan.Store

	// Clock defaults to time.Now. Tests inject a fixed clock so monthly
	// due dates are deterministic.
	Clock func() time.Time
}

func New(store plan.Store) *Engine {
	return &Engine{Store: store, Clock: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// Result summarizes one propagation run for the invoking UI action.
type Result struct {
	Package   plan.PackageKey `json:"package"`
	RuleID    plan.RuleID     `json:"ruleId,omitempty"`
	Selected  int             `json:"selected"` // customers matching the filter
	Updated   int             `json:"updated"`  // plans staged and committed
	Skipped   int             `json:"skipped"`  // selected customers with no plan yet
	Tasks     int             `json:"tasks"`    // task instances rewritten (resync only)
	Commits   int             `json:"commits"`  // chunks committed
	Notice    string          `json:"notice,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
}

// SelectCustomers yields the tenants a propagation may touch: paid
// customers on the target package. ActiveOnly additionally excludes
// deactivated customers; plan views use it, rule propagation does not.
func (e *Engine) SelectCustomers(ctx context.Context, pkg plan.PackageKey, activeOnly bool) ([]plan.Customer, error) {
	return e.Store.ListCustomers(ctx, plan.CustomerFilter{
		Type:        plan.CustomerPaid,
		PackageType: pkg,
		ActiveOnly:  activeOnly,
	})
}

// ApplyRule propagates one rule to every matching customer. Customers
// without a plan document are skipped, never created.
func (e *Engine) ApplyRule(ctx context.Context, pkg plan.PackageKey, ruleID plan.RuleID, actor string) (*Result, error) {
	now := e.now()

	rs, err := e.Store.GetRuleSet(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("loading rule set %s: %w", pkg, err)
	}
	rule := rs.FindRule(ruleID)
	if rule == nil {
		return nil, fmt.Errorf("rule %s in %s: %w", ruleID, pkg, plan.ErrRuleNotFound)
	}

	customers, err := e.SelectCustomers(ctx, pkg, false)
	if err != nil {
		return nil, fmt.Errorf("selecting customers: %w", err)
	}

	result := &Result{Package: pkg, RuleID: ruleID, Selected: len(customers), StartedAt: now}
	if len(customers) == 0 {
		result.Notice = fmt.Sprintf("no paid customers on package %s", pkg.Label())
		return result, nil
	}

	writer := plan.NewChunkedWriter(e.Store)
	for _, c := range customers {
		p, err := e.Store.GetPlan(ctx, c.ID)
		if errors.Is(err, plan.ErrPlanNotFound) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading plan for %s: %w", c.ID, err)
		}

		next := plan.ApplyRule(*p, *rule, c.DateJoined, now, actor)
		if err := writer.Add(ctx, plan.PlanMutation{CustomerID: c.ID, Plan: next}); err != nil {
			return nil, err
		}
		result.Updated++
	}
	if err := writer.Flush(ctx); err != nil {
		return nil, err
	}

	result.Commits = writer.Commits()
	return result, nil
}

// ResyncAll applies the whole current rule set to every matching
// customer's entire plan. Tasks outside rule governance and sections
// absent from the rule set pass through untouched.
func (e *Engine) ResyncAll(ctx context.Context, pkg plan.PackageKey, actor string) (*Result, error) {
	now := e.now()

	rs, err := e.Store.GetRuleSet(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("loading rule set %s: %w", pkg, err)
	}

	customers, err := e.SelectCustomers(ctx, pkg, false)
	if err != nil {
		return nil, fmt.Errorf("selecting customers: %w", err)
	}

	result := &Result{Package: pkg, Selected: len(customers), StartedAt: now}
	if len(customers) == 0 {
		result.Notice = fmt.Sprintf("no paid customers on package %s", pkg.Label())
		return result, nil
	}

	writer := plan.NewChunkedWriter(e.Store)
	for _, c := range customers {
		p, err := e.Store.GetPlan(ctx, c.ID)
		if errors.Is(err, plan.ErrPlanNotFound) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading plan for %s: %w", c.ID, err)
		}

		next, touched := plan.Resync(*p, *rs, c.DateJoined, now, actor)
		if err := writer.Add(ctx, plan.PlanMutation{CustomerID: c.ID, Plan: next}); err != nil {
			return nil, err
		}
		result.Updated++
		result.Tasks += touched
	}
	if err := writer.Flush(ctx); err != nil {
		return nil, err
	}

	result.Commits = writer.Commits()
	return result, nil
}
