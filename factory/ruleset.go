/*
Package factory provides YAML to Go rule-set conversion.

PURPOSE:
  Converts YAML rule-set definitions into plan.RuleSet documents. This
  enables the default onboarding/maintenance plan to be maintained as
  configuration rather than code: operations staff edit the YAML, the
  factory validates and converts it, and the seeded document becomes the
  cloning source for every package.

YAML SCHEMA:
  sections:
    - Getting Started
  tasks:
    - id: task-100001
      name: Kickoff call
      section: Getting Started
      order: 1
      frequency: oneTime          # oneTime | monthly | asNeeded
      daysAfterJoin: 3            # oneTime only
      monthlyDueDate: 15          # monthly only, day of month 1-28
      isActive: true
      requiresGoal: true
      defaultGoal: 10
      defaultCurrent: 0
      subTasks:
        - id: <uuid>
          text: Confirm shop goals

USAGE:
  rs, err := factory.DefaultRuleSet()
  err = factory.SeedDefaults(ctx, store, "ops@example.com")

SEE ALSO:
  - plan/types.go: RuleSet / PlanTaskRule definitions
  - propagate/rules.go: InitPackage, which clones the seeded default
*/
package factory

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/craftdesk/plan-engine/plan"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// RuleSetYAML is the YAML representation of a rule set.
type RuleSetYAML struct {
	Sections []string   `yaml:"sections"`
	Tasks    []RuleYAML `yaml:"tasks"`
}

// RuleYAML is the YAML representation of one rule.
type RuleYAML struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	Section        string        `yaml:"section"`
	Order          int           `yaml:"order"`
	Frequency      string        `yaml:"frequency"`
	DaysAfterJoin  int           `yaml:"daysAfterJoin"`
	MonthlyDueDate int           `yaml:"monthlyDueDate"`
	IsActive       bool          `yaml:"isActive"`
	RequiresGoal   bool          `yaml:"requiresGoal"`
	DefaultGoal    *float64      `yaml:"defaultGoal"`
	DefaultCurrent *float64      `yaml:"defaultCurrent"`
	SubTasks       []SubTaskYAML `yaml:"subTasks"`
}

// SubTaskYAML is the YAML representation of one subtask template.
type SubTaskYAML struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRuleSet converts YAML into a validated rule set.
func ParseRuleSet(data []byte) (*plan.RuleSet, error) {
	var raw RuleSetYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rule set yaml: %w", err)
	}

	rs := plan.RuleSet{
		Sections: append([]string(nil), raw.Sections...),
		Tasks:    make([]plan.PlanTaskRule, 0, len(raw.Tasks)),
	}

	seen := make(map[plan.RuleID]bool, len(raw.Tasks))
	for _, t := range raw.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("rule %q: missing id", t.Name)
		}
		id := plan.RuleID(t.ID)
		if seen[id] {
			return nil, fmt.Errorf("duplicate rule id %s", t.ID)
		}
		seen[id] = true

		rule := plan.PlanTaskRule{
			ID:             id,
			Name:           t.Name,
			Section:        t.Section,
			Order:          t.Order,
			Frequency:      plan.Frequency(t.Frequency),
			DaysAfterJoin:  t.DaysAfterJoin,
			MonthlyDueDay:  t.MonthlyDueDate,
			IsActive:       t.IsActive,
			RequiresGoal:   t.RequiresGoal,
			DefaultGoal:    toDecimal(t.DefaultGoal),
			DefaultCurrent: toDecimal(t.DefaultCurrent),
		}
		for _, st := range t.SubTasks {
			rule.SubTasks = append(rule.SubTasks, plan.SubTaskTemplate{ID: st.ID, Text: st.Text})
		}

		if err := plan.ValidateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %s: %w", t.ID, err)
		}
		rs.Tasks = append(rs.Tasks, rule)
	}

	return &rs, nil
}

// DefaultRuleSet returns the embedded default rule set.
func DefaultRuleSet() (*plan.RuleSet, error) {
	return ParseRuleSet(defaultsYAML)
}

// SeedDefaults writes the embedded default rule set for the default
// package key unless one already exists.
func SeedDefaults(ctx context.Context, store plan.RuleSetStore, actor string) error {
	if _, err := store.GetRuleSet(ctx, plan.PackageDefault); err == nil {
		return nil
	} else if !errors.Is(err, plan.ErrRuleSetNotFound) {
		return err
	}

	rs, err := DefaultRuleSet()
	if err != nil {
		return err
	}
	rs.UpdatedAt = time.Now().UTC()
	rs.UpdatedBy = actor
	return store.PutRuleSet(ctx, plan.PackageDefault, *rs)
}

func toDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
