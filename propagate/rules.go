/*
rules.go - Rule repository operations

PURPOSE:
  Orchestrates rule-set edits against the store: create/update/delete of
  individual rules and initializing a package from the default rule set.
  The document transforms themselves live on plan.RuleSet; this layer adds
  validation, id generation and persistence.
*/
package propagate

import (
	"context"
	"fmt"

	"github.com/craftdesk/plan-engine/plan"
)

// GetRuleSet fetches a package's rule set.
func (e *Engine) GetRuleSet(ctx context.Context, pkg plan.PackageKey) (*plan.RuleSet, error) {
	return e.Store.GetRuleSet(ctx, pkg)
}

// SaveRule validates and writes one rule into a package's rule set,
// replacing by id or appending. A rule with an empty id gets a generated
// id guaranteed not to collide within the rule set. Returns the stored
// rule.
func (e *Engine) SaveRule(ctx context.Context, pkg plan.PackageKey, rule plan.PlanTaskRule, actor string) (*plan.PlanTaskRule, error) {
	if err := plan.ValidateRule(rule); err != nil {
		return nil, err
	}

	rs, err := e.Store.GetRuleSet(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("loading rule set %s: %w", pkg, err)
	}

	if rule.ID == "" {
		rule.ID = plan.NewRuleID(rs.RuleIDs())
	}
	for i := range rule.SubTasks {
		if rule.SubTasks[i].ID == "" {
			rule.SubTasks[i].ID = plan.NewSubTaskID()
		}
	}

	now := e.now()
	rs.UpsertRule(rule, now, actor)
	if err := e.Store.PutRuleSet(ctx, pkg, *rs); err != nil {
		return nil, fmt.Errorf("saving rule set %s: %w", pkg, err)
	}
	return rs.FindRule(rule.ID), nil
}

// DeleteRule removes a rule from a package's rule set. Customer task
// instances already materialized from the rule are left in place.
func (e *Engine) DeleteRule(ctx context.Context, pkg plan.PackageKey, id plan.RuleID, actor string) error {
	rs, err := e.Store.GetRuleSet(ctx, pkg)
	if err != nil {
		return fmt.Errorf("loading rule set %s: %w", pkg, err)
	}

	if !rs.DeleteRule(id, e.now(), actor) {
		return fmt.Errorf("rule %s in %s: %w", id, pkg, plan.ErrRuleNotFound)
	}
	if err := e.Store.PutRuleSet(ctx, pkg, *rs); err != nil {
		return fmt.Errorf("saving rule set %s: %w", pkg, err)
	}
	return nil
}

// SaveSections replaces a rule set's section ordering. Sections still
// referenced by rules are kept even when dropped from the new list.
func (e *Engine) SaveSections(ctx context.Context, pkg plan.PackageKey, sections []string, actor string) (*plan.RuleSet, error) {
	rs, err := e.Store.GetRuleSet(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("loading rule set %s: %w", pkg, err)
	}

	rs.Sections = append([]string(nil), sections...)
	for _, rule := range rs.Tasks {
		rs.EnsureSection(rule.Section)
	}
	rs.UpdatedAt = e.now()
	rs.UpdatedBy = actor

	if err := e.Store.PutRuleSet(ctx, pkg, *rs); err != nil {
		return nil, fmt.Errorf("saving rule set %s: %w", pkg, err)
	}
	return rs, nil
}

// InitPackage clones the default rule set's sections and rules verbatim
// into the target package, replacing whatever the package held before.
func (e *Engine) InitPackage(ctx context.Context, pkg plan.PackageKey, actor string) (*plan.RuleSet, error) {
	if pkg == plan.PackageDefault {
		return nil, fmt.Errorf("cannot initialize the default package from itself: %w", plan.ErrInvalidRule)
	}

	def, err := e.Store.GetRuleSet(ctx, plan.PackageDefault)
	if err != nil {
		return nil, fmt.Errorf("loading default rule set: %w", err)
	}

	rs := def.Clone()
	rs.UpdatedAt = e.now()
	rs.UpdatedBy = actor
	if err := e.Store.PutRuleSet(ctx, pkg, rs); err != nil {
		return nil, fmt.Errorf("saving rule set %s: %w", pkg, err)
	}
	return &rs, nil
}
